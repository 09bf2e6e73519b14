package reconcile

import (
	"testing"
	"time"

	"orbit/app/core/task"
)

func TestApplyAddForcesTodo(t *testing.T) {
	store := task.NewStore()
	r := NewReconciler(store)

	title := "X"
	done := task.StatusDone
	out := r.Apply(Action{Kind: KindAdd, Reason: "r", Data: task.Patch{Title: &title, Status: &done}})
	if !out.Applied {
		t.Fatal("expected ADD to apply")
	}

	created, ok := store.Get(out.TaskID)
	if !ok {
		t.Fatal("created task not found")
	}
	if created.Status != task.StatusTodo {
		t.Fatalf("ADD must yield TODO, got %s", created.Status)
	}
	if created.Title != "X" {
		t.Fatalf("unexpected title: %s", created.Title)
	}
}

func TestApplyAddDefaultsZeroDuration(t *testing.T) {
	store := task.NewStore()
	r := NewReconciler(store)

	title := "Run"
	zero := 0
	out := r.Apply(Action{Kind: KindAdd, Reason: "r", Data: task.Patch{Title: &title, DurationMinutes: &zero}})

	created, _ := store.Get(out.TaskID)
	if created.DurationMinutes <= 0 {
		t.Fatalf("expected positive defaulted duration, got %d", created.DurationMinutes)
	}
}

func TestApplyUpdateStaleReference(t *testing.T) {
	store := task.NewStore()
	r := NewReconciler(store)
	store.Add(task.Patch{})
	before := store.Snapshot()

	title := "Ghost"
	out := r.Apply(Action{Kind: KindUpdate, TaskID: "no-such-task", Reason: "r", Data: task.Patch{Title: &title}})
	if out.Applied {
		t.Fatal("stale update must not apply")
	}
	after := store.Snapshot()
	if len(after) != len(before) || after[0].Title != before[0].Title {
		t.Fatal("stale update changed the store")
	}
}

func TestApplyDeleteRemovesMatching(t *testing.T) {
	store := task.NewStore()
	r := NewReconciler(store)
	keep := store.Add(task.Patch{})
	doomed := store.Add(task.Patch{})

	out := r.Apply(Action{Kind: KindDelete, TaskID: doomed.ID, Reason: "r"})
	if !out.Applied {
		t.Fatal("expected delete to apply")
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 remaining task, got %d", store.Count())
	}
	if _, ok := store.Get(keep.ID); !ok {
		t.Fatal("wrong task deleted")
	}

	if out := r.Apply(Action{Kind: KindDelete, TaskID: doomed.ID, Reason: "r"}); out.Applied {
		t.Fatal("second delete must be a no-op")
	}
}

func TestApplyUnknownKindIsNoop(t *testing.T) {
	store := task.NewStore()
	r := NewReconciler(store)
	store.Add(task.Patch{})

	out := r.Apply(Action{Kind: Kind("ARCHIVE"), TaskID: "whatever", Reason: "r"})
	if out.Applied {
		t.Fatal("unknown kind must not apply")
	}
	if store.Count() != 1 {
		t.Fatalf("unknown kind changed the store, count=%d", store.Count())
	}
}

func TestRescheduleOverdueScenario(t *testing.T) {
	store := task.NewStore()
	r := NewReconciler(store)

	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)
	created := store.Add(task.Patch{DueTime: &yesterday})

	store.SweepOverdue(now)
	swept, _ := store.Get(created.ID)
	if swept.Status != task.StatusPendingReschedule {
		t.Fatalf("expected PENDING_RESCHEDULE after sweep, got %s", swept.Status)
	}

	todo := task.StatusTodo
	out := r.Apply(Action{
		Kind:   KindReschedule,
		TaskID: created.ID,
		Reason: "You still wanted to do this.",
		Data:   task.Patch{DueTime: &tomorrow, Status: &todo},
	})
	if !out.Applied {
		t.Fatal("expected reschedule to apply")
	}

	got, _ := store.Get(created.ID)
	if got.Status != task.StatusTodo {
		t.Fatalf("expected TODO after reschedule, got %s", got.Status)
	}
	if got.DueTime == nil || !got.DueTime.Equal(tomorrow) {
		t.Fatal("due time not moved to tomorrow")
	}
}
