package agent

import (
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// Session is the conversational continuity handle for one resource. It
// accumulates the message history that gives the agent memory of earlier
// calls (previously summarized files, prior extractions).
type Session struct {
	handle string

	mu       sync.Mutex
	history  []llms.MessageContent
	messages int
}

func newSession() *Session {
	return &Session{handle: uuid.New().String()}
}

// Handle returns the opaque session identifier. Two sessions never share a
// handle, including a session and its post-reset replacement.
func (s *Session) Handle() string {
	return s.handle
}

// Messages returns the number of completed exchanges on this session.
func (s *Session) Messages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

// historyWith returns a copy of the session history with prompt appended as
// the next human message. The copy is what an in-flight call works against;
// a concurrent reset cannot mutate it.
func (s *Session) historyWith(prompt string) []llms.MessageContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]llms.MessageContent, 0, len(s.history)+1)
	msgs = append(msgs, s.history...)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	return msgs
}

// record appends a completed exchange and bumps the message counter.
func (s *Session) record(prompt, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		llms.TextParts(llms.ChatMessageTypeAI, reply),
	)
	s.messages++
}

// SessionRegistry maps resource ids to their agent sessions. Sessions are
// created lazily and never shared across resources.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Get returns the session for a resource, creating it on first use.
func (r *SessionRegistry) Get(resourceID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[resourceID]
	if !ok {
		sess = newSession()
		r.sessions[resourceID] = sess
	}
	return sess
}

// Reset discards the session for a resource. The next Get starts a fresh
// conversation. An in-flight call keeps the session it captured; its final
// record lands on the discarded session and is never seen again.
func (r *SessionRegistry) Reset(resourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, resourceID)
}
