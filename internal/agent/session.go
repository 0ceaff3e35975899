package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ThinkArcHQ/profilebase/internal/codeblock"
	"github.com/ThinkArcHQ/profilebase/internal/llm"
)

// Session holds the conversation and file set carried between turns.
type Session struct {
	ID        string
	History   []llm.ChatMessage
	Files     []codeblock.GeneratedFile
	UpdatedAt time.Time

	busy bool
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*Session)}
}

// acquire marks the session busy, creating it when needed. An empty id gets a
// fresh one.
func (s *sessionStore) acquire(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, UpdatedAt: time.Now()}
		s.sessions[id] = sess
	}
	if sess.busy {
		return nil, ErrTurnInFlight
	}
	sess.busy = true
	return sess, nil
}

func (s *sessionStore) release(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.busy = false
}

// snapshot copies the mutable parts of a session.
func (s *sessionStore) snapshot(sess *Session) ([]llm.ChatMessage, []codeblock.GeneratedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.ChatMessage(nil), sess.History...), append([]codeblock.GeneratedFile(nil), sess.Files...)
}

func (s *sessionStore) commit(sess *Session, files []codeblock.GeneratedFile, history ...llm.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.Files = append([]codeblock.GeneratedFile(nil), files...)
	sess.History = append(sess.History, history...)
	sess.UpdatedAt = time.Now()
}

func (s *sessionStore) get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	out := *sess
	out.History = append([]llm.ChatMessage(nil), sess.History...)
	out.Files = append([]codeblock.GeneratedFile(nil), sess.Files...)
	return out, true
}

func (s *sessionStore) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.busy {
			n++
		}
	}
	return n
}
