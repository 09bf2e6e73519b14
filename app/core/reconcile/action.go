package reconcile

import (
	"strings"

	"orbit/app/core/task"
)

type Kind string

const (
	KindAdd        Kind = "ADD"
	KindUpdate     Kind = "UPDATE"
	KindDelete     Kind = "DELETE"
	KindReschedule Kind = "RESCHEDULE"
)

func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToUpper(strings.TrimSpace(raw))) {
	case KindAdd:
		return KindAdd, true
	case KindUpdate:
		return KindUpdate, true
	case KindDelete:
		return KindDelete, true
	case KindReschedule:
		return KindReschedule, true
	default:
		return "", false
	}
}

// Action is a proposed task mutation staged on a model message until the user
// approves or dismisses it. TaskID is the canonical string form of the target
// identifier; ADD proposals leave it empty.
type Action struct {
	ID     string     `json:"id"`
	Kind   Kind       `json:"type"`
	TaskID string     `json:"taskId,omitempty"`
	Data   task.Patch `json:"taskData"`
	Reason string     `json:"reason"`
}
