package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashWarning FlashKind = "warning"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

// Session is the state owned by one browser session. Only the
// authenticated flag gates access; the rest is transient form state that is
// never persisted.
type Session struct {
	ID string

	mu            sync.Mutex
	authenticated bool
	draft         string
	suggestion    string
	accepted      string
	hasAccepted   bool
	flashes       []Flash
	expiresAt     time.Time
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Session) setAuthenticated(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = v
	if !v {
		s.draft, s.suggestion, s.accepted = "", "", ""
		s.hasAccepted = false
	}
}

// Draft is the text typed into the improvement box on the create view.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Suggestion is the improved text waiting for the user to accept or discard.
func (s *Session) Suggestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestion
}

// OfferSuggestion stores improved text and replaces the draft with it.
func (s *Session) OfferSuggestion(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestion = text
	s.draft = text
}

// AcceptSuggestion moves the pending suggestion into the create form.
func (s *Session) AcceptSuggestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suggestion == "" {
		return false
	}
	s.accepted, s.hasAccepted = s.suggestion, true
	s.suggestion = ""
	return true
}

func (s *Session) DiscardSuggestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestion = ""
}

// TakeAccepted returns the accepted suggestion once, then forgets it.
func (s *Session) TakeAccepted() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.accepted, s.hasAccepted
	s.accepted, s.hasAccepted = "", false
	return text, ok
}

func (s *Session) AddFlash(kind FlashKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes = append(s.flashes, Flash{Kind: kind, Message: message})
}

// PopFlashes returns queued messages and clears the queue.
func (s *Session) PopFlashes() []Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes
	s.flashes = nil
	return out
}

// SessionStore keeps sessions in memory. Sessions are independent; a login
// in one never unlocks another.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	now       func() time.Time
	lastPrune time.Time
}

// pruneInterval bounds how often New sweeps expired sessions.
const pruneInterval = time.Minute

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (st *SessionStore) TTL() time.Duration { return st.ttl }

// New creates a locked session.
func (st *SessionStore) New() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked()

	s := &Session{ID: uuid.NewString(), expiresAt: st.now().Add(st.ttl)}
	st.sessions[s.ID] = s
	return s
}

// Get returns a live session and extends its expiry.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if now.After(s.expiresAt) {
		delete(st.sessions, id)
		return nil, false
	}
	s.expiresAt = now.Add(st.ttl)
	return s, true
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// pruneLocked drops expired sessions, at most once per pruneInterval.
func (st *SessionStore) pruneLocked() {
	now := st.now()
	if now.Sub(st.lastPrune) < pruneInterval {
		return
	}
	st.lastPrune = now
	for id, s := range st.sessions {
		if now.After(s.expiresAt) {
			delete(st.sessions, id)
		}
	}
}
