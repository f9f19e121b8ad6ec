package runner

import (
	"context"
	"log/slog"
	"time"

	"lmapd/internal/domain"
	"lmapd/internal/usecase/dispatch"
	"lmapd/internal/usecase/workspace"
)

// ControlOp is a request translated from a host signal and executed on
// the scheduler loop.
type ControlOp int

const (
	// CtrlStop terminates the loop; running actions get SIGTERM.
	CtrlStop ControlOp = iota
	// CtrlRestart terminates the loop with the restart flag set; the
	// daemon shell reloads the configuration and runs again.
	CtrlRestart
	// CtrlStatus refreshes storage gauges and schedules a state dump.
	CtrlStatus
	// CtrlWipe cleans and re-initialises the queue workspace.
	CtrlWipe
)

// reapMsg reports a finished child: its pid and the exit status, which
// is the exit code for a normal exit or the negated signal number for a
// signal death.
type reapMsg struct {
	pid    int
	status int
}

// Observer receives scheduler lifecycle notifications. Implementations
// must be safe for use from the loop goroutine.
type Observer interface {
	FireDelivered(event string)
	ActionStarted(schedule, action string)
	ActionCompleted(schedule, action string, status int, duration time.Duration)
}

// StatusFunc renders the current state document and writes it to the
// status file. It runs on the scheduler loop, never in a signal handler.
type StatusFunc func(cfg *domain.Config) error

// Runner is the central state machine. It owns a single goroutine that
// reacts to event fires, child reaps, and control requests; every
// mutation of Schedule/Action runtime fields happens on that goroutine.
type Runner struct {
	cfg    *domain.Config
	ws     *workspace.Manager
	disp   *dispatch.Dispatcher
	logger *slog.Logger
	obs    Observer
	status StatusFunc

	fires   chan dispatch.Fire
	reaps   chan reapMsg
	control chan ControlOp
	done    chan struct{}

	restart bool
}

// New creates a runner over a validated configuration.
func New(cfg *domain.Config, ws *workspace.Manager, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		ws:      ws,
		disp:    dispatch.New(cfg, logger),
		logger:  logger,
		fires:   make(chan dispatch.Fire, 16),
		reaps:   make(chan reapMsg, 16),
		control: make(chan ControlOp, 8),
		done:    make(chan struct{}),
	}
}

// SetObserver attaches a lifecycle observer (e.g. metrics). Must be
// called before Run.
func (r *Runner) SetObserver(obs Observer) { r.obs = obs }

// SetStatusFunc attaches the state dump renderer. Must be called before
// Run.
func (r *Runner) SetStatusFunc(fn StatusFunc) { r.status = fn }

// Control enqueues a control request. Safe to call from signal
// forwarding goroutines; the request executes on the loop.
func (r *Runner) Control(op ControlOp) {
	select {
	case r.control <- op:
	case <-r.done:
	}
}

// Inject delivers an externally triggered event fire (controller-lost,
// controller-connected).
func (r *Runner) Inject(event string) { r.disp.Inject(event) }

// Run executes the scheduler loop until a stop or restart request. It
// reports whether the caller should reload and run again. A Runner runs
// once; the daemon shell builds a fresh Runner over the reloaded
// configuration after a restart.
func (r *Runner) Run(ctx context.Context) bool {
	defer close(r.done)

	if r.cfg.Agent != nil {
		r.cfg.Agent.LastStarted = time.Now()
	}

	// Pipelined execution is not implemented; such schedules are
	// disabled up front rather than misbehaving later.
	for _, sched := range r.cfg.Schedules {
		if sched.Mode == domain.ExecPipelined {
			r.logger.Warn("disabling schedule (pipelined not yet implemented)",
				"schedule", sched.Name)
			sched.State = domain.StateDisabled
		}
	}

	r.disp.Start(ctx, r.fires)
	defer r.disp.Stop()

	r.logger.Debug("scheduler loop starting")
	for {
		select {
		case fire := <-r.fires:
			if r.obs != nil {
				r.obs.FireDelivered(fire.Name)
			}
			r.suppressionFire(fire)
			r.executeFire(fire)

		case rp := <-r.reaps:
			r.reap(rp)

		case op := <-r.control:
			switch op {
			case CtrlStop:
				r.restart = false
				r.killAll()
				r.logger.Debug("scheduler loop stopping")
				return false
			case CtrlRestart:
				r.restart = true
				r.killAll()
				r.logger.Debug("scheduler loop restarting")
				return true
			case CtrlStatus:
				if err := r.ws.Update(r.cfg); err != nil {
					r.logger.Warn("workspace update failed", "error", err)
				}
				if r.status != nil {
					if err := r.status(r.cfg); err != nil {
						r.logger.Error("failed to write state dump", "error", err)
					}
				}
			case CtrlWipe:
				if err := r.ws.CleanAll(); err != nil {
					r.logger.Error("workspace clean failed", "error", err)
					break
				}
				if err := r.ws.Init(r.cfg); err != nil {
					r.logger.Error("workspace init failed", "error", err)
				}
			}

		case <-ctx.Done():
			r.restart = false
			r.killAll()
			return false
		}
	}
}

// executeFire walks the schedules and reacts to a fire: launch on the
// start event, kill on the end event. Start is always considered before
// end so a schedule bounded by the same tick launches and stops in
// order.
func (r *Runner) executeFire(fire dispatch.Fire) {
	now := time.Now()
	for _, sched := range r.cfg.Schedules {
		if sched.State != domain.StateDisabled {
			if sched.Name == "" {
				r.logger.Error("disabling unnamed schedule")
				sched.State = domain.StateDisabled
			} else if sched.StartEvent == fire.Name {
				r.startSchedule(sched, fire, now)
			}
		}

		if sched.EndEvent == fire.Name {
			r.scheduleKill(sched)
		}
	}
}

func (r *Runner) startSchedule(sched *domain.Schedule, fire dispatch.Fire, now time.Time) {
	if sched.State == domain.StateSuppressed {
		sched.CntSuppressions++
		return
	}
	if sched.State == domain.StateRunning {
		r.logger.Warn("schedule still running - skipping", "schedule", sched.Name)
		sched.CntOverlaps++
		return
	}

	sched.CycleNumber = 0
	if ev := r.cfg.FindEvent(fire.Name); ev != nil && ev.CycleInterval != 0 {
		interval := int64(ev.CycleInterval)
		sched.CycleNumber = (now.Unix() / interval) * interval
	}

	// Promote completed artefact pairs from _incoming before the first
	// action starts consuming the queue.
	if err := r.ws.ScheduleMove(sched); err != nil {
		r.logger.Warn("incoming promotion failed", "schedule", sched.Name, "error", err)
	}

	r.scheduleExec(sched, now)

	if fire.Kind.AutoDisables() {
		sched.State = domain.StateDisabled
	}
}

func (r *Runner) scheduleExec(sched *domain.Schedule, now time.Time) {
	switch sched.Mode {
	case domain.ExecSequential:
		sched.LastInvocation = now
		sched.CntInvocations++
		sched.State = domain.StateRunning
		if len(sched.Actions) > 0 {
			r.actionExec(sched, sched.Actions[0])
		}
	case domain.ExecParallel:
		sched.LastInvocation = now
		sched.CntInvocations++
		sched.State = domain.StateRunning
		for _, act := range sched.Actions {
			r.actionExec(sched, act)
		}
	case domain.ExecPipelined:
		r.logger.Warn("disabling schedule (pipelined not yet implemented)",
			"schedule", sched.Name)
		sched.State = domain.StateDisabled
	}
}

// killAll sends SIGTERM to every running action of every schedule.
func (r *Runner) killAll() {
	for _, sched := range r.cfg.Schedules {
		r.scheduleKill(sched)
	}
}

func (r *Runner) scheduleKill(sched *domain.Schedule) {
	if sched == nil || sched.Name == "" {
		return
	}
	for _, act := range sched.Actions {
		r.actionKill(act)
	}
}
