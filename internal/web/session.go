package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/notify"
)

// session is one browser's form and lifecycle. mu serializes handlers for
// the same browser; the outbound call itself runs without it.
type session struct {
	mu       sync.Mutex
	app      *app.App
	flash    *notify.Flash
	lastSeen time.Time
}

// sessionStore keeps sessions in memory until they sit idle for ttl.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	newApp   AppFactory
}

func newSessionStore(ttl time.Duration, factory AppFactory) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		newApp:   factory,
	}
}

// get returns the live session for id and marks it as used.
func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

func (s *sessionStore) create() (string, *session) {
	flash := notify.NewFlash()
	sess := &session{
		app:   s.newApp(flash),
		flash: flash,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	sess.lastSeen = s.now()
	s.sessions[id] = sess
	return id, sess
}

// sweep drops idle sessions and returns how many were removed.
func (s *sessionStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
