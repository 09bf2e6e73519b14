package seed

import (
	"testing"
	"time"

	"orbit/app/core/mood"
	"orbit/app/core/task"
)

func TestApplyPopulatesDemoData(t *testing.T) {
	store := task.NewStore()
	moods := mood.NewLog()
	now := time.Date(2026, time.August, 14, 12, 0, 0, 0, time.UTC)

	Apply(store, moods, now)

	// 4 heavy days x 3, 7 medium days x 2, 5 light days, 4 for today
	if store.Count() != 35 {
		t.Fatalf("expected 35 seeded tasks, got %d", store.Count())
	}
	if moods.Len() != 14 {
		t.Fatalf("expected 14 mood samples, got %d", moods.Len())
	}

	var done, inProgress int
	for _, tk := range store.Snapshot() {
		if tk.Status == task.StatusDone {
			done++
		}
		if tk.Status == task.StatusInProgress {
			inProgress++
		}
	}
	if done == 0 {
		t.Fatal("past days should be seeded as DONE")
	}
	if inProgress != 1 {
		t.Fatalf("expected exactly one in-progress task, got %d", inProgress)
	}

	for _, m := range moods.Recent(14) {
		if m.Score < 1 || m.Score > 10 {
			t.Fatalf("mood score out of range: %d", m.Score)
		}
	}
}

func TestApplyClampsMonthOverflow(t *testing.T) {
	store := task.NewStore()
	now := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)

	Apply(store, mood.NewLog(), now)

	for _, tk := range store.Snapshot() {
		if tk.DueTime != nil && tk.DueTime.Month() != time.February {
			t.Fatalf("seeded task overflowed the month: %s", tk.DueTime)
		}
	}
}
