// Package inmemory provides a process-local history.Store.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/history"
)

type session struct {
	history.Session
	messages []history.Message
	nextSeq  int64
}

// Store implements history.Store with maps guarded by one mutex, which also
// serializes appends within a session.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	// now is swappable so tests can pin timestamps.
	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns s using now for every timestamp.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) CreateSession(_ context.Context, systemPrompt string) (*history.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &session{
		Session: history.Session{
			ID:           uuid.NewString(),
			SystemPrompt: systemPrompt,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	s.sessions[sess.ID] = sess

	out := sess.Session
	return &out, nil
}

func (s *Store) GetSession(_ context.Context, id string) (*history.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, history.NotFoundError{ID: id}
	}

	out := sess.Session
	return &out, nil
}

func (s *Store) Append(_ context.Context, sessionID string, role history.Role, content string) (*history.Message, error) {
	if err := history.ValidateRole(role); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, history.NotFoundError{ID: sessionID}
	}

	now := s.now()
	sess.nextSeq++
	msg := history.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       sess.nextSeq,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	sess.messages = append(sess.messages, msg)
	if now.After(sess.UpdatedAt) {
		sess.UpdatedAt = now
	}

	return &msg, nil
}

func (s *Store) Recent(_ context.Context, sessionID string, limit int) ([]history.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, history.NotFoundError{ID: sessionID}
	}
	if limit <= 0 {
		return []history.Message{}, nil
	}

	n := min(limit, len(sess.messages))
	out := make([]history.Message, 0, n)
	for i := len(sess.messages) - 1; i >= len(sess.messages)-n; i-- {
		out = append(out, sess.messages[i])
	}
	return out, nil
}

func (s *Store) All(_ context.Context, sessionID string) ([]history.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, history.NotFoundError{ID: sessionID}
	}
	return append([]history.Message{}, sess.messages...), nil
}

func (s *Store) DeleteSession(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}

func (s *Store) ListSessions(_ context.Context, skip, limit int) ([]history.Session, error) {
	s.mu.RLock()
	all := make([]history.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess.Session)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].UpdatedAt.After(all[j].UpdatedAt)
		}
		return all[i].ID < all[j].ID
	})

	return history.Page(all, skip, limit), nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var _ history.Store = (*Store)(nil)
