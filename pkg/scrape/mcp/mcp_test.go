package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

type scrapeArgs struct {
	CinemaIDs []string `json:"cinema_ids"`
}

type scrapeHandler func(ctx context.Context, req *mcp.CallToolRequest, args scrapeArgs) (*mcp.CallToolResult, any, error)

// stubTransport wires an in-process MCP server exposing the scrape tool and
// returns the client side of the connection.
func stubTransport(handler scrapeHandler) mcp.Transport {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "scraper-stub",
			Version: "0.0.1",
		},
		&mcp.ServerOptions{},
	)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scrape_cinemas",
		Description: "stub scraper",
	}, mcp.ToolHandlerFor[scrapeArgs, any](handler))

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	_, err := server.Connect(context.Background(), serverTransport, nil)
	Expect(err).NotTo(HaveOccurred())

	return clientTransport
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func newSource() *Source {
	src, err := NewSource(Config{Command: "unused"}, zap.NewNop())
	Expect(err).NotTo(HaveOccurred())
	return src
}

var _ = Describe("MCP Source", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("parses the payload from the tool result", func() {
		var gotIDs []string
		transport := stubTransport(func(_ context.Context, _ *mcp.CallToolRequest, args scrapeArgs) (*mcp.CallToolResult, any, error) {
			gotIDs = args.CinemaIDs
			return textResult(`{"cinemas":[{"cinema_id":"57","cinema_name":"Les Halles","films":[]}]}`), nil, nil
		})

		got, err := newSource().fetch(ctx, transport, []string{"57"})
		Expect(err).NotTo(HaveOccurred())
		Expect(gotIDs).To(Equal([]string{"57"}))
		Expect(got.Cinemas).To(HaveLen(1))
		Expect(got.Cinemas[0].CinemaID).To(Equal("57"))
	})

	It("surfaces tool errors", func() {
		transport := stubTransport(func(_ context.Context, _ *mcp.CallToolRequest, _ scrapeArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: "browser crashed"}},
			}, nil, nil
		})

		_, err := newSource().fetch(ctx, transport, []string{"57"})
		Expect(err).To(MatchError(ContainSubstring("browser crashed")))
	})

	It("fails on a result with no text content", func() {
		transport := stubTransport(func(_ context.Context, _ *mcp.CallToolRequest, _ scrapeArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{}, nil, nil
		})

		_, err := newSource().fetch(ctx, transport, []string{"57"})
		Expect(err).To(MatchError(ContainSubstring("empty result")))
	})

	It("treats a non-payload tool result as a failed batch", func() {
		transport := stubTransport(func(_ context.Context, _ *mcp.CallToolRequest, _ scrapeArgs) (*mcp.CallToolResult, any, error) {
			return textResult("<html>not json</html>"), nil, nil
		})

		_, err := newSource().fetch(ctx, transport, []string{"57"})
		Expect(err).To(MatchError(ContainSubstring("parsing scrape payload")))
	})

	It("fails when the scraper process dies before the handshake", func() {
		src, err := NewSource(Config{
			Command: "sh",
			Args:    []string{"-c", "exit 3"},
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		_, err = src.FetchCinemas(ctx, []string{"57"})
		Expect(err).To(MatchError(ContainSubstring("connecting to scraper")))
	})
})
