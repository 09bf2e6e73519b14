package habits

import (
	"strings"
	"sync"
	"time"

	"orbit/app/core/reconcile"
)

const (
	defaultMessageWindow = 20
	defaultListCap       = 5
)

const (
	StyleReflective   = "reflective"
	StyleAppreciative = "appreciative"
	StyleExpressive   = "expressive"
)

// Snapshot is the advisory habit view handed to prompt construction. It is
// never validated and never gates any operation.
type Snapshot struct {
	RecentMessages      []string  `json:"recentMessages"`
	PreferredDuration   int       `json:"preferredDuration"`
	PreferredCategories []string  `json:"preferredCategories"`
	CommunicationStyle  string    `json:"communicationStyle"`
	RecentPatterns      []string  `json:"recentPatterns"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// Model infers lightweight preference signals from the trailing window of
// user messages and proposed actions. Everything here is best effort and safe
// to discard.
type Model struct {
	mu            sync.Mutex
	messageWindow int
	listCap       int

	recentMessages      []string
	preferredDuration   int
	preferredCategories []string
	recentPatterns      []string
	style               string
	lastUpdated         time.Time
}

func NewModel() *Model {
	return &Model{
		messageWindow: defaultMessageWindow,
		listCap:       defaultListCap,
		style:         StyleReflective,
	}
}

// Observe folds one conversation turn into the model: the raw user text plus
// whatever actions the model proposed in response.
func (m *Model) Observe(userText string, actions []reconcile.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	text := strings.TrimSpace(userText)
	if text != "" {
		m.recentMessages = append(m.recentMessages, text)
		if len(m.recentMessages) > m.messageWindow {
			m.recentMessages = m.recentMessages[len(m.recentMessages)-m.messageWindow:]
		}
	}

	for _, a := range actions {
		if a.Data.DurationMinutes != nil && *a.Data.DurationMinutes > 0 {
			m.observeDuration(*a.Data.DurationMinutes)
		}
		if a.Data.Category != nil {
			m.preferredCategories = appendDedupTrim(m.preferredCategories, string(*a.Data.Category), m.listCap)
		}
		m.recentPatterns = appendDedupTrim(m.recentPatterns, string(a.Kind), m.listCap)
	}

	m.style = classifyStyle(m.recentMessages)
	m.lastUpdated = time.Now()
}

// observeDuration keeps a recency-biased estimate: each new sample is
// averaged against only the last stored value, not the full history. That is
// the reference behavior and is kept as-is; the output is advisory only.
func (m *Model) observeDuration(minutes int) {
	if m.preferredDuration == 0 {
		m.preferredDuration = minutes
		return
	}
	m.preferredDuration = (m.preferredDuration + minutes) / 2
}

func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		RecentMessages:      append([]string(nil), m.recentMessages...),
		PreferredDuration:   m.preferredDuration,
		PreferredCategories: append([]string(nil), m.preferredCategories...),
		CommunicationStyle:  m.style,
		RecentPatterns:      append([]string(nil), m.recentPatterns...),
		LastUpdated:         m.lastUpdated,
	}
}

// classifyStyle assigns a single coarse label from the trailing message
// window. Rules are evaluated in fixed order and the last matching rule wins.
func classifyStyle(messages []string) string {
	joined := strings.ToLower(strings.Join(messages, " "))
	style := StyleReflective
	for _, phrase := range []string{"thank", "grateful", "appreciate"} {
		if strings.Contains(joined, phrase) {
			style = StyleAppreciative
			break
		}
	}
	if strings.ContainsAny(joined, "!?") {
		style = StyleExpressive
	}
	return style
}

func appendDedupTrim(list []string, v string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	out = append(out, v)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
