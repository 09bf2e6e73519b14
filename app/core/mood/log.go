package mood

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is one immutable mood sample at day granularity.
type Entry struct {
	Date  string   `json:"date"` // YYYY-MM-DD
	Score int      `json:"score"`
	Tags  []string `json:"tags"`
	Note  string   `json:"note"`
}

// Log is an append-only chronological sequence of mood samples. Entries are
// never mutated after creation.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewLog() *Log {
	return &Log{}
}

// Append records a sample. Scores outside 1-10 are clamped, the date falls
// back to today when blank or malformed.
func (l *Log) Append(e Entry) Entry {
	if e.Score < 1 {
		e.Score = 1
	}
	if e.Score > 10 {
		e.Score = 10
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(e.Date)); err != nil {
		e.Date = time.Now().Format("2006-01-02")
	} else {
		e.Date = strings.TrimSpace(e.Date)
	}
	e.Tags = append([]string(nil), e.Tags...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Date < l.entries[j].Date
	})
	return e
}

// Recent returns up to n latest entries in chronological order.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Summary renders the one-line mood context sent to the generation call:
// the arithmetic mean of the last `window` scores to one decimal place.
func (l *Log) Summary(window int) string {
	recent := l.Recent(window)
	if len(recent) == 0 {
		return "No mood samples recorded yet."
	}
	total := 0
	for _, e := range recent {
		total += e.Score
	}
	avg := float64(total) / float64(len(recent))
	return fmt.Sprintf("User average mood over the last %d entries is %.1f/10.", len(recent), avg)
}
