package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTitle           = "New Orbit"
	DefaultDurationMinutes = 30
)

// Store is the single authority on the current task list. All mutation paths
// (direct edits, slash commands, the reconciler, the overdue sweep) go through
// it, and every mutation replaces the whole task under the lock so readers
// never observe a half-merged entry.
type Store struct {
	mu          sync.RWMutex
	tasks       []Task
	onCompleted func(Task)
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetCompletionHook registers the callback fired exactly once each time a task
// transitions into DONE via Toggle. Toggling back out of DONE fires nothing.
func (s *Store) SetCompletionHook(fn func(Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCompleted = fn
}

// Add constructs a new task from the patch. Status always initializes to TODO
// no matter what the patch carries; missing fields fall back to fixed
// defaults. Add cannot fail.
func (s *Store) Add(p Patch) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	due := now
	t := Task{
		ID:              uuid.NewString(),
		Title:           DefaultTitle,
		Status:          StatusTodo,
		Category:        CategoryPersonal,
		DurationMinutes: DefaultDurationMinutes,
		DueTime:         &due,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	p.apply(&t)
	t.Status = StatusTodo
	if t.DurationMinutes <= 0 {
		t.DurationMinutes = DefaultDurationMinutes
	}
	s.tasks = append(s.tasks, t)
	return t.Clone()
}

// Update merges the patch onto the task matching id. Missing id is a no-op,
// not an error: stale references from the conversational boundary are
// expected. A patch without Status preserves the current status.
func (s *Store) Update(id string, p Patch) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	merged := s.tasks[i].Clone()
	p.apply(&merged)
	if merged.DurationMinutes <= 0 {
		merged.DurationMinutes = DefaultDurationMinutes
	}
	merged.UpdatedAt = s.now()
	s.tasks[i] = merged
	return merged.Clone(), true
}

// Delete removes the task matching id. No-op if absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return true
}

// Toggle flips a task into DONE, or back to TODO when it already is DONE.
func (s *Store) Toggle(id string) (Task, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, false
	}
	t := s.tasks[i].Clone()
	completing := t.Status != StatusDone
	if completing {
		t.Status = StatusDone
	} else {
		t.Status = StatusTodo
	}
	t.UpdatedAt = s.now()
	s.tasks[i] = t
	hook := s.onCompleted
	s.mu.Unlock()

	if completing && hook != nil {
		hook(t.Clone())
	}
	return t.Clone(), true
}

// SweepOverdue transitions every TODO task whose due time lies strictly before
// now into PENDING_RESCHEDULE and returns the transitioned tasks. It is the
// only automatic status transition and is idempotent for a fixed now.
func (s *Store) SweepOverdue(now time.Time) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var moved []Task
	for i, t := range s.tasks {
		if t.Status != StatusTodo || t.DueTime == nil {
			continue
		}
		if !t.DueTime.Before(now) {
			continue
		}
		swept := t.Clone()
		swept.Status = StatusPendingReschedule
		swept.UpdatedAt = now
		s.tasks[i] = swept
		moved = append(moved, swept.Clone())
	}
	return moved
}

func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Snapshot returns a read-only projection of the current list, preserving
// insertion order. Mutating the result does not touch the store.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		items = append(items, t.Clone())
	}
	return items
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) indexOf(id string) int {
	want := NormalizeID(id)
	if want == "" {
		return -1
	}
	for i, t := range s.tasks {
		if t.ID == want {
			return i
		}
	}
	return -1
}
