package bot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"cs2-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	rosterButtonPrefix = "roster"
	sessionIDLength    = 12
)

// rosterSession keeps a fetched roster around so page buttons can redraw it
// without probing again.
type rosterSession struct {
	label   string
	roster  *domain.Roster
	created time.Time
}

type sessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]*rosterSession
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*rosterSession),
	}
}

func (s *sessionStore) put(label string, roster *domain.Roster) (string, error) {
	id, err := gonanoid.New(sessionIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate nanoid: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()
	s.items[id] = &rosterSession{label: label, roster: roster, created: s.now()}
	return id, nil
}

func (s *sessionStore) get(id string) (*rosterSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.items, id)
		return nil, false
	}
	return sess, true
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *sessionStore) evictLocked() {
	for id, sess := range s.items {
		if s.expired(sess) {
			delete(s.items, id)
		}
	}
}

func (s *sessionStore) expired(sess *rosterSession) bool {
	return s.now().Sub(sess.created) > s.ttl
}

func rosterButtonID(sessionID string, page int) string {
	return fmt.Sprintf("%s:%s:%d", rosterButtonPrefix, sessionID, page)
}

func parseRosterButtonID(customID string) (string, int, bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != rosterButtonPrefix || parts[1] == "" {
		return "", 0, false
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, false
	}
	return parts[1], page, true
}
