// Package local provides an in-process implementation of session.Store.
//
// Sessions live in a map behind a mutex and expire lazily: an expired entry
// is evicted the first time anything touches it.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marqueeco/marquee/pkg/recommend"
	"github.com/marqueeco/marquee/pkg/session"
)

type entry struct {
	sess      session.Session
	expiresAt time.Time
}

// Store implements session.Store in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an in-memory session store. A non-positive ttl means
// session.DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new empty session.
func (s *Store) Create(_ context.Context) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := session.Session{
		ID:        uuid.NewString(),
		Messages:  []session.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = &entry{sess: sess, expiresAt: now.Add(s.ttl)}

	out := sess
	return &out, nil
}

// Get returns a session by id.
func (s *Store) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return nil, err
	}

	out := e.sess
	out.Messages = append([]session.Message(nil), e.sess.Messages...)
	return &out, nil
}

// AppendMessage adds one message and refreshes the TTL.
func (s *Store) AppendMessage(_ context.Context, id string, msg session.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return err
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	e.sess.Messages = append(e.sess.Messages, msg)
	s.touch(e)

	return nil
}

// MergePreferences overlays partial onto the stored preferences.
func (s *Store) MergePreferences(_ context.Context, id string, partial recommend.Preferences) (*recommend.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return nil, err
	}

	e.sess.Preferences.Merge(partial)
	s.touch(e)

	merged := e.sess.Preferences
	return &merged, nil
}

// RecentHistory returns the most recent messages, oldest first.
func (s *Store) RecentHistory(_ context.Context, id string, limit int) ([]session.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = session.DefaultHistoryLimit
	}

	msgs := e.sess.Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	return append([]session.Message(nil), msgs...), nil
}

// Delete removes a session. Unknown ids are a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Close is a no-op for the local store.
func (s *Store) Close() error {
	return nil
}

// live returns the entry for id, evicting it first if it has expired.
// Callers must hold mu.
func (s *Store) live(id string) (*entry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, id)
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return e, nil
}

// touch refreshes the session's expiry after a write. Callers must hold mu.
func (s *Store) touch(e *entry) {
	now := s.now()
	e.sess.UpdatedAt = now
	e.expiresAt = now.Add(s.ttl)
}

// Ensure Store implements session.Store
var _ session.Store = (*Store)(nil)
