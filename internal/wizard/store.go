package wizard

import (
	"sync"
	"time"

	"consular/pkg/errors"
	"consular/pkg/logger"

	"github.com/google/uuid"
)

// Store keeps live sessions in memory, keyed by ID. Drafts are never persisted;
// deleting a session is abandonment.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	rules  *Rules
	fees   FeeQuoter
	logger logger.Logger
}

func NewStore(rules *Rules, fees FeeQuoter, log logger.Logger) *Store {
	if rules == nil {
		rules = NewRules(nil)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		rules:    rules,
		fees:     fees,
		logger:   log,
	}
}

func (s *Store) Create() *Session {
	sess := NewSession(s.rules, s.fees)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	s.logger.Info("Wizard session created", map[string]interface{}{
		"session_id": sess.ID().String(),
	})
	return sess
}

func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return sess, nil
}

// Delete abandons a session and drops its draft.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return errors.ErrSessionNotFound
	}
	s.logger.Info("Wizard session abandoned", map[string]interface{}{
		"session_id": id.String(),
		"step":       sess.Position(),
		"state":      string(sess.State()),
	})
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune removes sessions idle for longer than maxIdle and returns how many went.
func (s *Store) Prune(maxIdle time.Duration) int {
	cutoff := s.rules.Now().Add(-maxIdle)

	s.mu.Lock()
	var removed int
	for id, sess := range s.sessions {
		if sess.lastActivity().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("Pruned idle wizard sessions", map[string]interface{}{
			"removed":  removed,
			"max_idle": maxIdle.String(),
		})
	}
	return removed
}
