package task

import (
	"strings"
	"time"
)

type Status string

const (
	StatusTodo              Status = "TODO"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusDone              Status = "DONE"
	StatusPendingReschedule Status = "PENDING_RESCHEDULE"
)

func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusTodo:
		return StatusTodo, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusDone:
		return StatusDone, true
	case StatusPendingReschedule:
		return StatusPendingReschedule, true
	default:
		return "", false
	}
}

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryGrowth   Category = "growth"
	CategoryHealth   Category = "health"
)

func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryWork:
		return CategoryWork, true
	case CategoryPersonal:
		return CategoryPersonal, true
	case CategoryGrowth:
		return CategoryGrowth, true
	case CategoryHealth:
		return CategoryHealth, true
	default:
		return "", false
	}
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func ParsePriority(raw string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	default:
		return "", false
	}
}

// Task is one unit of scheduled work. Identifiers are canonical strings; all
// lookups compare the trimmed string form so ids coming back from the
// conversational boundary still match.
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DueTime         *time.Time `json:"dueTime,omitempty"`
	Status          Status     `json:"status"`
	Category        Category   `json:"category"`
	DurationMinutes int        `json:"durationMinutes"`
	Importance      Priority   `json:"importance,omitempty"`
	Urgency         Priority   `json:"urgency,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Clone returns a copy that shares no pointers with the original.
func (t Task) Clone() Task {
	c := t
	if t.DueTime != nil {
		due := *t.DueTime
		c.DueTime = &due
	}
	return c
}

// Patch carries the fields of a partial task edit. Nil fields are left
// untouched on merge.
type Patch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	DueTime         *time.Time `json:"dueTime,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	Category        *Category  `json:"category,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Importance      *Priority  `json:"importance,omitempty"`
	Urgency         *Priority  `json:"urgency,omitempty"`
}

func (p Patch) apply(t *Task) {
	if p.Title != nil && strings.TrimSpace(*p.Title) != "" {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueTime != nil {
		due := *p.DueTime
		t.DueTime = &due
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DurationMinutes != nil {
		t.DurationMinutes = *p.DurationMinutes
	}
	if p.Importance != nil {
		t.Importance = *p.Importance
	}
	if p.Urgency != nil {
		t.Urgency = *p.Urgency
	}
}

func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}
