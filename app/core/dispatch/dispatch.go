package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrStarted     = errors.New("dispatch: already started")
	ErrNotRunning  = errors.New("dispatch: not running")
	ErrUnknownLane = errors.New("dispatch: unknown lane")
	ErrLaneFull    = errors.New("dispatch: lane is full")
)

// Dispatcher executes work serially per lane. Each persona conversation is
// one lane: turns for the same persona never interleave, while different
// personas proceed in parallel.
type Dispatcher struct {
	mu      sync.Mutex
	lanes   map[string]chan func(context.Context)
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	enqueued  atomic.Uint64
	completed atomic.Uint64
}

type Stats struct {
	Started   bool   `json:"started"`
	Lanes     int    `json:"lanes"`
	Depth     int    `json:"depth"`
	Enqueued  uint64 `json:"enqueued"`
	Completed uint64 `json:"completed"`
}

func New(laneIDs []string, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 16
	}
	lanes := make(map[string]chan func(context.Context), len(laneIDs))
	for _, id := range laneIDs {
		lanes[id] = make(chan func(context.Context), buffer)
	}
	return &Dispatcher{lanes: lanes}
}

func (d *Dispatcher) Start(parent context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return ErrStarted
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.started = true
	d.mu.Unlock()

	for _, lane := range d.lanes {
		d.wg.Add(1)
		go d.worker(ctx, lane)
	}
	return nil
}

// Submit queues fn on its lane without blocking. The callback receives the
// dispatcher's run context and executes after every earlier submission to
// the same lane has finished.
func (d *Dispatcher) Submit(laneID string, fn func(context.Context)) error {
	d.mu.Lock()
	started := d.started
	lane, ok := d.lanes[laneID]
	d.mu.Unlock()

	if !started {
		return ErrNotRunning
	}
	if !ok {
		return ErrUnknownLane
	}
	select {
	case lane <- fn:
		d.enqueued.Add(1)
		return nil
	default:
		return ErrLaneFull
	}
}

func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	started := d.started
	depth := 0
	for _, lane := range d.lanes {
		depth += len(lane)
	}
	lanes := len(d.lanes)
	d.mu.Unlock()

	return Stats{
		Started:   started,
		Lanes:     lanes,
		Depth:     depth,
		Enqueued:  d.enqueued.Load(),
		Completed: d.completed.Load(),
	}
}

// Stop cancels the run context and waits up to timeout for workers to
// finish their current callback. Queued callbacks that never started are
// dropped.
func (d *Dispatcher) Stop(timeout time.Duration) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return nil
	}
	cancel := d.cancel
	d.cancel = nil
	d.started = false
	d.mu.Unlock()

	cancel()
	if timeout <= 0 {
		d.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("dispatch: stop timeout")
	}
}

func (d *Dispatcher) worker(ctx context.Context, lane chan func(context.Context)) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-lane:
			fn(ctx)
			d.completed.Add(1)
		}
	}
}
