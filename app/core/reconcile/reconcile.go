package reconcile

import (
	"orbit/app/core/task"
)

// Reconciler is the trust boundary between AI-proposed actions and the task
// store. Apply either mutates the store deterministically or safely ignores
// the proposal; it never fails.
type Reconciler struct {
	store *task.Store
}

func NewReconciler(store *task.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Outcome reports what Apply did with a proposal. Applied is false for stale
// references and unknown kinds, which are not errors.
type Outcome struct {
	Kind    Kind   `json:"type"`
	TaskID  string `json:"taskId,omitempty"`
	Applied bool   `json:"applied"`
}

// Apply executes one approved action against the store.
//
// ADD ignores any proposed status so the model can never fabricate a DONE
// task or bypass the overdue pipeline. UPDATE and RESCHEDULE share the same
// merge; they differ only in the intent signaled to the user. Stale
// references no-op. Unknown kinds no-op so future action types degrade
// instead of crashing the reconciler.
func (r *Reconciler) Apply(a Action) Outcome {
	switch a.Kind {
	case KindAdd:
		created := r.store.Add(a.Data)
		return Outcome{Kind: a.Kind, TaskID: created.ID, Applied: true}
	case KindUpdate, KindReschedule:
		updated, ok := r.store.Update(a.TaskID, a.Data)
		if !ok {
			return Outcome{Kind: a.Kind, TaskID: a.TaskID}
		}
		return Outcome{Kind: a.Kind, TaskID: updated.ID, Applied: true}
	case KindDelete:
		if !r.store.Delete(a.TaskID) {
			return Outcome{Kind: a.Kind, TaskID: a.TaskID}
		}
		return Outcome{Kind: a.Kind, TaskID: a.TaskID, Applied: true}
	default:
		return Outcome{Kind: a.Kind, TaskID: a.TaskID}
	}
}
