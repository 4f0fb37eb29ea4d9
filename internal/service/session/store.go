package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBusy            = errors.New("a request is already in progress for this session")
)

// Store keeps per-session profile state in memory for the lifetime of the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*astro.Session
}

// NewStore bootstraps an empty in-memory store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*astro.Session)}
}

// Create provisions a fresh session with no profile.
func (s *Store) Create(_ context.Context) astro.Session {
	now := time.Now().UTC()
	sess := &astro.Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return *sess
}

// Get returns a copy of the session.
func (s *Store) Get(_ context.Context, id string) (astro.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return astro.Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// Profile returns the stored profile. ok is false until the first SetProfile,
// so an empty stored profile is distinguishable from none.
func (s *Store) Profile(_ context.Context, id string) (text string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, found := s.sessions[id]
	if !found {
		return "", false, ErrSessionNotFound
	}
	return sess.Profile, sess.HasProfile, nil
}

// SetProfile overwrites the stored profile unconditionally.
func (s *Store) SetProfile(_ context.Context, id, text string) error {
	return s.update(id, func(sess *astro.Session) {
		sess.Profile = text
		sess.HasProfile = true
	})
}

// SetDetails remembers the birth details the current profile was built from.
func (s *Store) SetDetails(_ context.Context, id string, details astro.BirthDetails) error {
	return s.update(id, func(sess *astro.Session) {
		sess.Details = details
	})
}

// BeginCall raises the pending flag, failing with ErrBusy if it is already set.
func (s *Store) BeginCall(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if sess.Pending {
		return ErrBusy
	}
	sess.Pending = true
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

// EndCall clears the pending flag.
func (s *Store) EndCall(_ context.Context, id string) {
	_ = s.update(id, func(sess *astro.Session) {
		sess.Pending = false
	})
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) update(id string, fn func(*astro.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	fn(sess)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}
