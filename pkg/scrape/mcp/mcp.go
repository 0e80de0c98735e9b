// Package mcp implements scrape.Source over the Model Context Protocol. The
// scraper runs as a subprocess MCP server: each fetch spawns a fresh process,
// performs the handshake over stdio, and invokes the scrape tool once.
package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/scrape"
)

const (
	// DefaultTimeout bounds one scrape call. Scraping a batch of cinemas
	// drives a real browser and may take minutes.
	DefaultTimeout = 15 * time.Minute

	// toolName is the scraper tool invoked for multi-cinema fetches.
	toolName = "scrape_cinemas"
)

// Source implements scrape.Source over a subprocess MCP server.
type Source struct {
	command string
	args    []string
	timeout time.Duration
	logger  *zap.Logger
	client  *mcp.Client
}

// Config holds configuration for the subprocess source.
type Config struct {
	// Command is the executable to spawn (e.g. "node").
	Command string

	// Args are passed to the command (e.g. the server script path).
	Args []string

	// Timeout bounds a single fetch. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// NewSource creates a subprocess-backed scrape source.
func NewSource(cfg Config, logger *zap.Logger) (*Source, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("scraper command is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := mcp.NewClient(
		&mcp.Implementation{
			Name:    "marquee",
			Version: "0.1.0",
		},
		&mcp.ClientOptions{},
	)

	return &Source{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: timeout,
		logger:  logger,
		client:  client,
	}, nil
}

// FetchCinemas spawns the scraper and requests the programs for the given
// cinema ids.
func (s *Source) FetchCinemas(ctx context.Context, cinemaIDs []string) (*scrape.Payload, error) {
	transport := &mcp.CommandTransport{
		Command: exec.Command(s.command, s.args...),
	}

	s.logger.Debug("spawning scraper",
		zap.String("command", s.command),
		zap.Int("cinemas", len(cinemaIDs)),
	)

	return s.fetch(ctx, transport, cinemaIDs)
}

// fetch runs one tools/call exchange over the given transport.
func (s *Source) fetch(ctx context.Context, transport mcp.Transport, cinemaIDs []string) (*scrape.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to scraper: %w", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: map[string]any{"cinema_ids": cinemaIDs},
	})
	if err != nil {
		return nil, fmt.Errorf("calling scraper: %w", err)
	}

	text := textContent(res)
	if res.IsError {
		return nil, fmt.Errorf("scraper returned error: %s", text)
	}
	if text == "" {
		return nil, fmt.Errorf("scraper returned an empty result")
	}

	return scrape.ParsePayload([]byte(text))
}

// textContent joins the text parts of a tool result. Non-text content (the
// scraper only ever emits text) is skipped.
func textContent(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Ensure Source implements scrape.Source
var _ scrape.Source = (*Source)(nil)
