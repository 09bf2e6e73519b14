package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"orbit/app/core/dispatch"
	"orbit/app/core/persona"
	"orbit/app/pkg/types"
)

type echoAgent struct {
	err error
}

func (a *echoAgent) Process(_ context.Context, msg types.Message) (types.Message, error) {
	if a.err != nil {
		return types.Message{}, a.err
	}
	return types.Message{Text: "echo: " + msg.Text}, nil
}

func newRunningDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	d := dispatch.New([]string{persona.Companion, persona.IdealSelf}, 8)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("dispatcher start failed: %v", err)
	}
	t.Cleanup(func() { d.Stop(time.Second) })
	return d
}

func TestHandleRepliesThroughLane(t *testing.T) {
	g := New(&echoAgent{}, newRunningDispatcher(t))

	reply, err := g.Handle(context.Background(), types.Message{PersonaID: persona.Companion, Text: "hi"})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply.Text != "echo: hi" {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
	if reply.PersonaID != persona.Companion || reply.Role != types.RoleModel {
		t.Fatalf("reply not normalized: %+v", reply)
	}
}

func TestHandleDefaultsPersonaLane(t *testing.T) {
	g := New(&echoAgent{}, newRunningDispatcher(t))
	reply, err := g.Handle(context.Background(), types.Message{Text: "hello"})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply.PersonaID != persona.Companion {
		t.Fatalf("expected companion lane, got %q", reply.PersonaID)
	}
}

func TestHandleUnknownPersonaBypassesLanes(t *testing.T) {
	g := New(&echoAgent{}, newRunningDispatcher(t))
	reply, err := g.Handle(context.Background(), types.Message{PersonaID: "zorp", Text: "hi"})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if !strings.Contains(reply.Text, "hi") {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
}

func TestHandleWithoutDispatcher(t *testing.T) {
	g := New(&echoAgent{}, nil)
	reply, err := g.Handle(context.Background(), types.Message{PersonaID: persona.IdealSelf, Text: "direct"})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if reply.Text != "echo: direct" {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
}

func TestHandleCountsFailures(t *testing.T) {
	g := New(&echoAgent{err: errors.New("boom")}, newRunningDispatcher(t))
	if _, err := g.Handle(context.Background(), types.Message{PersonaID: persona.Companion, Text: "hi"}); err == nil {
		t.Fatal("expected error from failing agent")
	}

	health := g.Health()
	if health.Processed != 1 || health.Failures != 1 {
		t.Fatalf("unexpected health counters: %+v", health)
	}
	if health.LastMessageAt.IsZero() {
		t.Fatal("last message time not recorded")
	}
}

func TestHealthListsChannels(t *testing.T) {
	g := New(&echoAgent{}, nil)
	g.Register(stubChannel("http"))
	g.Register(stubChannel("cli"))

	health := g.Health()
	if len(health.Channels) != 2 || health.Channels[0] != "cli" || health.Channels[1] != "http" {
		t.Fatalf("unexpected channel list: %v", health.Channels)
	}
}

type stubChannel string

func (s stubChannel) ID() string { return string(s) }

func (s stubChannel) Start(ctx context.Context, _ func(context.Context, types.Message) (types.Message, error)) error {
	<-ctx.Done()
	return nil
}
