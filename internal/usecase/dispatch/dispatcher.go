package dispatch

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"lmapd/internal/domain"
)

// Fire is delivered to the scheduler loop whenever an armed event is
// due.
type Fire struct {
	Name string
	Kind domain.EventKind
}

// Dispatcher arms one timer goroutine per referenced event and delivers
// fires over a single channel. It never mutates configuration state;
// the scheduler loop owns all of that.
type Dispatcher struct {
	cfg    *domain.Config
	fires  chan<- Fire
	logger *slog.Logger
	rng    *rand.Rand

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a dispatcher for the given configuration.
func New(cfg *domain.Config, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start arms every event that some schedule or suppression references.
// Orphan events are logged and skipped. Fires are posted to the fires
// channel until Stop or ctx cancellation.
func (d *Dispatcher) Start(ctx context.Context, fires chan<- Fire) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.fires = fires

	ctx, d.cancel = context.WithCancel(ctx)
	now := time.Now()

	for _, ev := range d.cfg.Events {
		if ev.Name == "" {
			continue
		}
		if !d.cfg.EventReferenced(ev.Name) {
			d.logger.Warn("event is not used - skipping", "event", ev.Name)
			continue
		}
		d.arm(ctx, ev, now)
	}
}

// Stop cancels every armed timer and waits for the timer goroutines to
// drain.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
}

// Inject delivers an externally generated fire, used by a control
// channel for the controller-lost and controller-connected events.
func (d *Dispatcher) Inject(name string) {
	ev := d.cfg.FindEvent(name)
	if ev == nil {
		d.logger.Warn("ignoring fire for unknown event", "event", name)
		return
	}
	select {
	case d.fires <- Fire{Name: ev.Name, Kind: ev.Kind}:
	default:
		d.logger.Error("dropping injected fire, scheduler not consuming", "event", ev.Name)
	}
}

func (d *Dispatcher) arm(ctx context.Context, ev *domain.Event, now time.Time) {
	switch ev.Kind {
	case domain.EventPeriodic:
		if !ev.End.IsZero() && now.After(ev.End) {
			d.logger.Warn("event ended in the past", "event", ev.Name)
			return
		}
		d.spawn(func() { d.runPeriodic(ctx, ev) })

	case domain.EventCalendar:
		if !ev.End.IsZero() && now.After(ev.End) {
			d.logger.Warn("event ended in the past", "event", ev.Name)
			return
		}
		d.spawn(func() { d.runCalendar(ctx, ev) })

	case domain.EventOneOff:
		if now.After(ev.Start) {
			d.logger.Warn("one-off event is in the past", "event", ev.Name)
			return
		}
		d.spawn(func() { d.runOnce(ctx, ev) })

	case domain.EventImmediate, domain.EventStartup:
		d.spawn(func() {
			if d.sleepSpread(ctx, ev) {
				d.deliver(ctx, ev)
			}
		})

	case domain.EventControllerLost, domain.EventControllerConnected:
		// Fired by the external control channel via Inject, never by a
		// timer.

	default:
		d.logger.Warn("ignoring event (not implemented)", "event", ev.Name)
	}
}

func (d *Dispatcher) spawn(fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

// runPeriodic aligns the first fire to the event's start instant and
// re-arms every interval afterwards, retiring once the end instant
// passes.
func (d *Dispatcher) runPeriodic(ctx context.Context, ev *domain.Event) {
	interval := time.Duration(ev.Interval) * time.Second
	sched := alignedInterval{
		start:    ev.Start,
		hasStart: !ev.Start.IsZero(),
		interval: interval,
	}

	// Without a start instant the first fire is immediate, then the
	// interval timer takes over.
	next := time.Now()
	if sched.hasStart {
		next = sched.Next(time.Now())
	}

	for {
		if !sleepUntil(ctx, next) {
			return
		}
		if !ev.End.IsZero() && time.Now().After(ev.End) {
			d.logger.Warn("event ending", "event", ev.Name)
			return
		}
		if !d.sleepSpread(ctx, ev) {
			return
		}
		d.deliver(ctx, ev)
		next = sched.Next(next)
	}
}

// runCalendar ticks with one-second granularity, consulting the pure
// calendar matcher at every tick. A localtime-level failure cannot occur
// here (bitsets are validated at load), so the only retirement cause is
// the end instant.
func (d *Dispatcher) runCalendar(ctx context.Context, ev *domain.Event) {
	for {
		now := time.Now()
		if !ev.End.IsZero() && now.After(ev.End) {
			d.logger.Warn("event ending", "event", ev.Name)
			return
		}

		decision, wait := ev.Calendar.Match(now)
		switch decision {
		case domain.CalendarMatch:
			if !d.sleepSpread(ctx, ev) {
				return
			}
			d.deliver(ctx, ev)
			if !sleepFor(ctx, time.Second) {
				return
			}
		case domain.CalendarWait:
			if wait < 1 {
				wait = 1
			}
			if !sleepFor(ctx, time.Duration(wait)*time.Second) {
				return
			}
		default:
			// A coarse component missed; nothing can change before the
			// next minute boundary.
			if !sleepUntil(ctx, now.Truncate(time.Minute).Add(time.Minute)) {
				return
			}
		}
	}
}

func (d *Dispatcher) runOnce(ctx context.Context, ev *domain.Event) {
	next := onceAt{at: ev.Start}.Next(time.Now())
	if next.IsZero() {
		return
	}
	if !sleepUntil(ctx, next) {
		return
	}
	if !d.sleepSpread(ctx, ev) {
		return
	}
	d.deliver(ctx, ev)
}

// sleepSpread delays by a uniformly distributed number of seconds in
// [0, random-spread] when the event has one configured.
func (d *Dispatcher) sleepSpread(ctx context.Context, ev *domain.Event) bool {
	if !ev.HasSpread || ev.RandomSpread == 0 {
		return ctx.Err() == nil
	}
	d.mu.Lock()
	spread := randInterval(d.rng, 0, ev.RandomSpread)
	d.mu.Unlock()
	if spread == 0 {
		return ctx.Err() == nil
	}
	return sleepFor(ctx, time.Duration(spread)*time.Second)
}

// deliver blocks until the scheduler loop accepts the fire or the
// dispatcher shuts down. Only this event's timer waits; every event has
// its own goroutine.
func (d *Dispatcher) deliver(ctx context.Context, ev *domain.Event) {
	select {
	case d.fires <- Fire{Name: ev.Name, Kind: ev.Kind}:
	case <-ctx.Done():
	}
}

func sleepFor(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err() == nil
	}
	return sleepFor(ctx, d)
}
