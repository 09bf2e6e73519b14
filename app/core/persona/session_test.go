package persona

import (
	"testing"

	"orbit/app/core/reconcile"
)

func newTestSessions() *Sessions {
	return NewSessions(Defaults())
}

func TestSessionsAreIndependent(t *testing.T) {
	sessions := newTestSessions()
	companion, ok := sessions.Get(Companion)
	if !ok {
		t.Fatal("companion session missing")
	}
	idealSelf, ok := sessions.Get(IdealSelf)
	if !ok {
		t.Fatal("ideal_self session missing")
	}

	companion.AppendUser("hello")
	companion.SetAwaiting(true)

	if idealSelf.Len() != 0 {
		t.Fatal("transcripts must not be shared")
	}
	if idealSelf.Awaiting() {
		t.Fatal("awaiting flag must not be shared")
	}
}

func TestGetNormalizesID(t *testing.T) {
	sessions := newTestSessions()
	if _, ok := sessions.Get("  Companion "); !ok {
		t.Fatal("expected case-insensitive trimmed lookup")
	}
	if _, ok := sessions.Get("stranger"); ok {
		t.Fatal("unexpected session for unknown persona")
	}
}

func TestTranscriptOrder(t *testing.T) {
	sess := NewSession(Defaults()[0])
	sess.AppendUser("first")
	sess.AppendModel("second", nil)
	sess.AppendUser("third")

	transcript := sess.Transcript()
	if len(transcript) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(transcript))
	}
	want := []string{"first", "second", "third"}
	for i, text := range want {
		if transcript[i].Text != text {
			t.Fatalf("message %d: expected %q, got %q", i, text, transcript[i].Text)
		}
	}
}

func TestTakeActionSingleShot(t *testing.T) {
	sess := NewSession(Defaults()[0])
	actions := []reconcile.Action{
		{ID: "a-1", Kind: reconcile.KindAdd, Reason: "r1"},
		{ID: "a-2", Kind: reconcile.KindDelete, TaskID: "t1", Reason: "r2"},
	}
	msg := sess.AppendModel("proposals", actions)

	taken, ok := sess.TakeAction(msg.ID, "a-1")
	if !ok {
		t.Fatal("expected to take a-1")
	}
	if taken.Reason != "r1" {
		t.Fatalf("unexpected action taken: %s", taken.ID)
	}
	if _, ok := sess.TakeAction(msg.ID, "a-1"); ok {
		t.Fatal("action must be single-shot")
	}

	pending := sess.PendingActions()
	if len(pending) != 1 || pending[0].Action.ID != "a-2" {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
}

func TestTakeActionUnknownMessage(t *testing.T) {
	sess := NewSession(Defaults()[0])
	sess.AppendModel("no actions", nil)
	if _, ok := sess.TakeAction("missing", "a-1"); ok {
		t.Fatal("expected take to fail for unknown message")
	}
}

func TestTranscriptIsDetached(t *testing.T) {
	sess := NewSession(Defaults()[0])
	msg := sess.AppendModel("p", []reconcile.Action{{ID: "a-1", Kind: reconcile.KindAdd, Reason: "r"}})

	transcript := sess.Transcript()
	transcript[0].Actions[0].Reason = "mutated"

	if _, ok := sess.TakeAction(msg.ID, "a-1"); !ok {
		t.Fatal("store copy affected by transcript mutation")
	}
}
