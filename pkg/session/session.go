// Package session manages conversational session state: the message history
// and accumulated preferences of one user conversation.
//
// Sessions are ephemeral. Every store expires them after a TTL of inactivity;
// an expired session is indistinguishable from one that never existed.
package session

import (
	"context"
	"time"

	"github.com/marqueeco/marquee/pkg/recommend"
)

// DefaultTTL is how long an inactive session survives.
const DefaultTTL = 24 * time.Hour

// DefaultHistoryLimit is the number of messages RecentHistory returns when
// the caller does not ask for a specific count.
const DefaultHistoryLimit = 10

// Message is one conversational turn.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Session is one user conversation.
type Session struct {
	ID          string                `json:"id"`
	Preferences recommend.Preferences `json:"preferences"`
	Messages    []Message             `json:"messages"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Store persists sessions. Every write refreshes the session's TTL.
type Store interface {
	// Create starts a new empty session with a generated id.
	Create(ctx context.Context) (*Session, error)

	// Get returns a session by id, or ErrNotFound if it never existed or
	// has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// AppendMessage adds one message to the session's history.
	AppendMessage(ctx context.Context, id string, msg Message) error

	// MergePreferences overlays partial onto the session's preferences
	// field by field and returns the merged result. Absent fields never
	// clobber earlier answers.
	MergePreferences(ctx context.Context, id string, partial recommend.Preferences) (*recommend.Preferences, error)

	// RecentHistory returns up to limit of the most recent messages,
	// oldest first. A non-positive limit means DefaultHistoryLimit.
	RecentHistory(ctx context.Context, id string, limit int) ([]Message, error)

	// Delete removes a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}
