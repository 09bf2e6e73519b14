package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"orbit/app/core/dispatch"
	"orbit/app/core/persona"
	"orbit/app/pkg/logger"
	"orbit/app/pkg/types"
)

// Gateway fans interaction channels into the agent. Every inbound message is
// dispatched on its persona lane so turns for one persona stay ordered even
// when several surfaces talk at once.
type Gateway struct {
	agent      types.Agent
	dispatcher *dispatch.Dispatcher
	channels   map[string]types.Channel

	processed       atomic.Uint64
	failures        atomic.Uint64
	lastMessageUnix atomic.Int64
	startedUnix     atomic.Int64
}

type HealthStatus struct {
	Started       bool           `json:"started"`
	StartedAt     time.Time      `json:"startedAt,omitempty"`
	Channels      []string       `json:"channels"`
	Processed     uint64         `json:"processed"`
	Failures      uint64         `json:"failures"`
	LastMessageAt time.Time      `json:"lastMessageAt,omitempty"`
	Dispatch      dispatch.Stats `json:"dispatch"`
}

func New(agent types.Agent, dispatcher *dispatch.Dispatcher) *Gateway {
	return &Gateway{
		agent:      agent,
		dispatcher: dispatcher,
		channels:   make(map[string]types.Channel),
	}
}

func (g *Gateway) Register(c types.Channel) {
	g.channels[c.ID()] = c
	logger.Info("[Gateway] registered channel: %s", c.ID())
}

// Start runs every registered channel until the context is cancelled or a
// channel fails.
func (g *Gateway) Start(ctx context.Context) error {
	g.startedUnix.Store(time.Now().Unix())

	eg, egCtx := errgroup.WithContext(ctx)
	for _, c := range g.channels {
		c := c
		eg.Go(func() error {
			if err := c.Start(egCtx, g.Handle); err != nil && egCtx.Err() == nil {
				return fmt.Errorf("channel %s: %w", c.ID(), err)
			}
			return nil
		})
	}
	logger.Info("[Gateway] started %d channel(s)", len(g.channels))
	return eg.Wait()
}

// Handle routes one inbound message through the persona lane and returns the
// agent's reply. Channels call this synchronously.
func (g *Gateway) Handle(ctx context.Context, msg types.Message) (types.Message, error) {
	g.processed.Add(1)
	g.lastMessageUnix.Store(time.Now().Unix())

	lane := persona.NormalizeID(msg.PersonaID)
	if lane == "" {
		lane = persona.Companion
	}
	msg.PersonaID = lane

	if g.dispatcher == nil {
		return g.process(ctx, msg)
	}

	type result struct {
		reply types.Message
		err   error
	}
	done := make(chan result, 1)
	submitErr := g.dispatcher.Submit(lane, func(runCtx context.Context) {
		reply, err := g.process(runCtx, msg)
		done <- result{reply: reply, err: err}
	})
	if submitErr != nil {
		// unknown personas bypass the lanes so the agent can report the
		// problem itself
		if errors.Is(submitErr, dispatch.ErrUnknownLane) {
			return g.process(ctx, msg)
		}
		g.failures.Add(1)
		return types.Message{}, fmt.Errorf("dispatch: %w", submitErr)
	}

	select {
	case r := <-done:
		if r.err != nil {
			g.failures.Add(1)
		}
		return r.reply, r.err
	case <-ctx.Done():
		return types.Message{}, ctx.Err()
	}
}

func (g *Gateway) process(ctx context.Context, msg types.Message) (types.Message, error) {
	reply, err := g.agent.Process(ctx, msg)
	if err != nil {
		logger.Error("[Gateway] processing failed persona=%s: %v", msg.PersonaID, err)
		return types.Message{}, err
	}
	if reply.PersonaID == "" {
		reply.PersonaID = msg.PersonaID
	}
	if reply.Role == "" {
		reply.Role = types.RoleModel
	}
	return reply, nil
}

func (g *Gateway) Health() HealthStatus {
	channels := make([]string, 0, len(g.channels))
	for id := range g.channels {
		channels = append(channels, id)
	}
	sort.Strings(channels)

	status := HealthStatus{
		Channels:  channels,
		Processed: g.processed.Load(),
		Failures:  g.failures.Load(),
	}
	if g.dispatcher != nil {
		status.Dispatch = g.dispatcher.Stats()
	}
	if started := g.startedUnix.Load(); started > 0 {
		status.Started = true
		status.StartedAt = time.Unix(started, 0).UTC()
	}
	if last := g.lastMessageUnix.Load(); last > 0 {
		status.LastMessageAt = time.Unix(last, 0).UTC()
	}
	return status
}
