package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"orbit/app/core/persona"
	"orbit/app/core/reconcile"
	"orbit/app/core/task"
	"orbit/app/pkg/types"
)

func runScript(t *testing.T, script string, handle func(context.Context, types.Message) (types.Message, error)) string {
	t.Helper()
	c := NewChannel(persona.NewSessions(persona.Defaults()))
	c.in = strings.NewReader(script)
	var out bytes.Buffer
	c.out = &out
	if err := c.Start(context.Background(), handle); err != nil {
		t.Fatalf("cli run failed: %v", err)
	}
	return out.String()
}

func TestExitEndsLoop(t *testing.T) {
	calls := 0
	out := runScript(t, "exit\n", func(context.Context, types.Message) (types.Message, error) {
		calls++
		return types.Message{}, nil
	})
	if calls != 0 {
		t.Fatalf("exit should not reach the handler, got %d calls", calls)
	}
	if !strings.Contains(out, "Until next time.") {
		t.Fatalf("missing farewell: %q", out)
	}
}

func TestPersonaSwitching(t *testing.T) {
	var got []string
	script := "hello\n@ideal_self\nhello again\n@nobody\nexit\n"
	out := runScript(t, script, func(_ context.Context, msg types.Message) (types.Message, error) {
		got = append(got, msg.PersonaID)
		return types.Message{PersonaID: msg.PersonaID, Text: "ok"}, nil
	})

	if len(got) != 2 || got[0] != persona.Companion || got[1] != persona.IdealSelf {
		t.Fatalf("unexpected persona routing: %v", got)
	}
	if !strings.Contains(out, "Unknown persona") {
		t.Fatalf("bad persona not reported: %q", out)
	}
}

func TestRenderShowsProposals(t *testing.T) {
	title := "Evening walk"
	out := runScript(t, "plan something\nexit\n", func(_ context.Context, msg types.Message) (types.Message, error) {
		return types.Message{
			PersonaID: msg.PersonaID,
			Text:      "How about a walk?",
			Meta: map[string]interface{}{
				"suggestedActions": []reconcile.Action{{
					ID:     "a1",
					Kind:   reconcile.KindAdd,
					Data:   task.Patch{Title: &title},
					Reason: "fresh air helps",
				}},
			},
		}, nil
	})

	for _, want := range []string{"How about a walk?", "proposal 1: ADD", "Evening walk", "/approve"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBlankLinesSkipHandler(t *testing.T) {
	calls := 0
	runScript(t, "\n   \nexit\n", func(context.Context, types.Message) (types.Message, error) {
		calls++
		return types.Message{}, nil
	})
	if calls != 0 {
		t.Fatalf("blank lines must not reach the handler, got %d", calls)
	}
}
