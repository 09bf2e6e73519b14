package persona

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"orbit/app/core/reconcile"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn in a persona transcript. Messages are immutable once
// appended except for the proposals list, which only shrinks as the user
// approves or dismisses entries.
type Message struct {
	ID        string             `json:"id"`
	Role      string             `json:"role"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
	Actions   []reconcile.Action `json:"suggestedActions,omitempty"`
}

// PendingAction is one unresolved proposal together with the message carrying
// it, in transcript order.
type PendingAction struct {
	MessageID string           `json:"messageId"`
	Action    reconcile.Action `json:"action"`
}

// Session is the per-persona conversation state: ordered transcript plus the
// awaiting-response flag. The two personas hold independent sessions and
// never share transcripts.
type Session struct {
	mu       sync.RWMutex
	persona  Persona
	messages []Message
	awaiting bool
}

func NewSession(p Persona) *Session {
	return &Session{persona: p}
}

func (s *Session) Persona() Persona {
	return s.persona
}

func (s *Session) AppendUser(text string) Message {
	return s.append(Message{Role: RoleUser, Text: text})
}

func (s *Session) AppendModel(text string, actions []reconcile.Action) Message {
	return s.append(Message{Role: RoleModel, Text: text, Actions: actions})
}

func (s *Session) append(m Message) Message {
	m.ID = uuid.NewString()
	m.Timestamp = time.Now()
	m.Actions = append([]reconcile.Action(nil), m.Actions...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return cloneMessage(m)
}

func (s *Session) SetAwaiting(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = v
}

func (s *Session) Awaiting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.awaiting
}

// Transcript returns a detached copy of the full message history in append
// order.
func (s *Session) Transcript() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, cloneMessage(m))
	}
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// PendingActions lists every unresolved proposal in transcript order.
func (s *Session) PendingActions() []PendingAction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PendingAction
	for _, m := range s.messages {
		for _, a := range m.Actions {
			out = append(out, PendingAction{MessageID: m.ID, Action: a})
		}
	}
	return out
}

// TakeAction atomically removes and returns the identified proposal.
// Proposals are single-shot: once taken (for approval or dismissal) a second
// take of the same id fails.
func (s *Session) TakeAction(messageID, actionID string) (reconcile.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.messages {
		if m.ID != messageID {
			continue
		}
		for j, a := range m.Actions {
			if a.ID != actionID {
				continue
			}
			remaining := make([]reconcile.Action, 0, len(m.Actions)-1)
			remaining = append(remaining, m.Actions[:j]...)
			remaining = append(remaining, m.Actions[j+1:]...)
			s.messages[i].Actions = remaining
			return a, true
		}
	}
	return reconcile.Action{}, false
}

func cloneMessage(m Message) Message {
	c := m
	c.Actions = append([]reconcile.Action(nil), m.Actions...)
	return c
}

// Sessions holds the fixed set of persona sessions, constructed once at
// startup.
type Sessions struct {
	order []string
	byID  map[string]*Session
}

func NewSessions(personas []Persona) *Sessions {
	s := &Sessions{byID: make(map[string]*Session, len(personas))}
	for _, p := range personas {
		s.order = append(s.order, p.ID)
		s.byID[p.ID] = NewSession(p)
	}
	return s
}

func (s *Sessions) Get(id string) (*Session, bool) {
	sess, ok := s.byID[NormalizeID(id)]
	return sess, ok
}

func (s *Sessions) IDs() []string {
	return append([]string(nil), s.order...)
}
