// Package redis provides a Redis-backed implementation of session.Store.
//
// Sessions are stored as JSON values under a key prefix, with the TTL
// enforced by Redis key expiry. Read-modify-write operations run under
// optimistic locking so concurrent appends to the same session do not lose
// messages.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/recommend"
	"github.com/marqueeco/marquee/pkg/session"
)

const keyPrefix = "marquee:session:"

// maxTxRetries bounds how often a watched transaction is retried after a
// concurrent modification.
const maxTxRetries = 5

// Store implements session.Store on Redis.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStoreOpts configures a Redis session store. A non-positive TTL means
// session.DefaultTTL.
type NewStoreOpts struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Logger   *zap.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, o *NewStoreOpts) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrConnection, err)
	}

	ttl := o.TTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{client: client, ttl: ttl, logger: logger}, nil
}

// Create starts a new empty session.
func (s *Store) Create(ctx context.Context) (*session.Session, error) {
	now := time.Now()
	sess := session.Session{
		ID:        uuid.NewString(),
		Messages:  []session.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.write(ctx, &sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

// Get returns a session by id. Expiry is enforced by Redis itself.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrConnection, err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}

	return &sess, nil
}

// AppendMessage adds one message under optimistic locking and refreshes the
// TTL.
func (s *Store) AppendMessage(ctx context.Context, id string, msg session.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	return s.update(ctx, id, func(sess *session.Session) {
		sess.Messages = append(sess.Messages, msg)
	})
}

// MergePreferences overlays partial onto the stored preferences.
func (s *Store) MergePreferences(ctx context.Context, id string, partial recommend.Preferences) (*recommend.Preferences, error) {
	var merged recommend.Preferences

	err := s.update(ctx, id, func(sess *session.Session) {
		sess.Preferences.Merge(partial)
		merged = sess.Preferences
	})
	if err != nil {
		return nil, err
	}

	return &merged, nil
}

// RecentHistory returns the most recent messages, oldest first.
func (s *Store) RecentHistory(ctx context.Context, id string, limit int) ([]session.Message, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = session.DefaultHistoryLimit
	}

	msgs := sess.Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	return msgs, nil
}

// Delete removes a session. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrConnection, err)
	}
	return nil
}

// Close releases the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// write marshals and stores a session with a fresh TTL.
func (s *Store) write(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}

	if err := s.client.Set(ctx, keyPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrConnection, err)
	}

	return nil
}

// update runs a read-modify-write on a session under WATCH, retrying a
// bounded number of times when a concurrent writer wins the race.
func (s *Store) update(ctx context.Context, id string, mutate func(*session.Session)) error {
	key := keyPrefix + id

	txn := func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return fmt.Errorf("%w: %s", session.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", session.ErrConnection, err)
		}

		var sess session.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("decoding session %s: %w", id, err)
		}

		mutate(&sess)
		sess.UpdatedAt = time.Now()

		updated, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("encoding session %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, goredis.TxFailedErr) {
			s.logger.Debug("session update retried after concurrent write",
				zap.String("session_id", id),
				zap.Int("attempt", i+1),
			)
			continue
		}
		return err
	}

	return fmt.Errorf("updating session %s: too many concurrent writes", id)
}

// Ensure Store implements session.Store
var _ session.Store = (*Store)(nil)
