package runner

import (
	"os"
	"os/exec"
	"syscall"
	"time"

	"lmapd/internal/domain"
)

// argvLimit caps the argument vector handed to a measurement program.
const argvLimit = 252

// actionExec launches one action. It runs on the scheduler loop; the
// spawned child is monitored by a goroutine that reports the exit
// status back over the reap channel.
func (r *Runner) actionExec(sched *domain.Schedule, act *domain.Action) {
	if act == nil || act.Name == "" || act.TaskName == "" || act.Workspace == "" {
		return
	}

	if act.State == domain.StateSuppressed {
		act.CntSuppressions++
		return
	}
	if act.State == domain.StateDisabled {
		return
	}

	task := r.cfg.FindTask(act.TaskName)
	if task == nil {
		r.logger.Error("task for action does not exist",
			"task", act.TaskName, "action", act.Name)
		return
	}
	if task.Program == "" {
		r.logger.Error("task has no program", "task", task.Name)
		return
	}

	// Only programs listed as a capability may run; the daemon does not
	// execute arbitrary commands.
	if !r.cfg.Capabilities.AllowsProgram(task.Program) {
		r.logger.Error("task does not match capabilities", "task", task.Name)
		return
	}

	if act.Pid != 0 {
		r.logger.Warn("action still running - skipping",
			"action", act.Name, "pid", act.Pid)
		act.CntOverlaps++
		return
	}

	args, ok := buildArgs(task, act)
	if !ok {
		r.logger.Error("action has too many arguments", "action", act.Name)
		return
	}

	now := time.Now()
	act.LastInvocation = now

	// The meta start record goes to disk before the program starts, so a
	// crash mid-run leaves a sidecar that is reprocessed on the next
	// startup.
	if err := r.ws.MetaWriteStart(sched, act, task); err != nil {
		r.logger.Error("failed to write meta start record",
			"action", act.Name, "error", err)
		return
	}

	data, err := r.ws.OpenData(sched, act, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		r.logger.Error("failed to open data file", "action", act.Name, "error", err)
		return
	}

	cmd := exec.Command(task.Program, args...)
	cmd.Stdout = data
	cmd.Stderr = os.Stderr
	cmd.Dir = act.Workspace

	if err := cmd.Start(); err != nil {
		data.Close()
		r.logger.Error("failed to execute action", "action", act.Name, "error", err)
		return
	}
	data.Close()

	act.Pid = cmd.Process.Pid
	act.State = domain.StateRunning
	act.CntInvocations++

	if r.obs != nil {
		r.obs.ActionStarted(sched.Name, act.Name)
	}

	go r.monitor(cmd)
}

// buildArgs creates the argument vector from the task options followed
// by the action options. Only set names and values are appended.
func buildArgs(task *domain.Task, act *domain.Action) ([]string, bool) {
	var args []string
	for _, opt := range task.Options {
		if len(args) >= argvLimit {
			return nil, false
		}
		args = appendOption(args, opt)
	}
	for _, opt := range act.Options {
		if len(args) >= argvLimit {
			return nil, false
		}
		args = appendOption(args, opt)
	}
	if len(args) > argvLimit {
		return nil, false
	}
	return args, true
}

func appendOption(args []string, opt *domain.Option) []string {
	if opt.Name != "" {
		args = append(args, opt.Name)
	}
	if opt.Value != "" {
		args = append(args, opt.Value)
	}
	return args
}

// monitor waits for one child and reports its exit status to the loop.
// This is the Go analogue of the SIGCHLD handler plus the non-blocking
// waitpid pass.
func (r *Runner) monitor(cmd *exec.Cmd) {
	pid := cmd.Process.Pid
	err := cmd.Wait()

	status := 0
	if err != nil {
		status = 1
		if exitErr, ok := err.(*exec.ExitError); ok {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				switch {
				case ws.Signaled():
					status = -int(ws.Signal())
				case ws.Exited():
					status = ws.ExitStatus()
				}
			}
		}
	}

	select {
	case r.reaps <- reapMsg{pid: pid, status: status}:
	case <-r.done:
	}
}

// findByPid resolves a reaped pid to its schedule and action.
func (r *Runner) findByPid(pid int) (*domain.Schedule, *domain.Action) {
	for _, sched := range r.cfg.Schedules {
		for _, act := range sched.Actions {
			if act.Pid == pid {
				return sched, act
			}
		}
	}
	return nil, nil
}

// reap processes one finished child on the scheduler loop: record the
// status, seal the meta sidecar, move artefacts to the destinations,
// clean the action workspace, chain the next sequential action, and
// reconcile the schedule state.
func (r *Runner) reap(rp reapMsg) {
	now := time.Now()

	sched, act := r.findByPid(rp.pid)
	if sched == nil || act == nil {
		r.logger.Debug("ignoring unknown pid", "pid", rp.pid)
		return
	}

	act.Pid = 0
	act.State = domain.StateEnabled
	if act.CntActiveSupp > 0 {
		act.State = domain.StateSuppressed
	}
	act.LastCompletion = now
	act.LastStatus = rp.status

	if act.LastStatus != 0 {
		act.LastFailedCompletion = act.LastCompletion
		act.LastFailedStatus = act.LastStatus
		act.CntFailures++
	}

	if r.obs != nil {
		r.obs.ActionCompleted(sched.Name, act.Name, rp.status,
			act.LastCompletion.Sub(act.LastInvocation))
	}

	if err := r.ws.MetaWriteEnd(sched, act); err != nil {
		r.logger.Warn("failed to write meta end record",
			"action", act.Name, "error", err)
	}

	// Results only travel on success; a failed run leaves nothing for
	// the destinations.
	if act.LastStatus == 0 && len(act.Destinations) > 0 {
		for _, name := range act.Destinations {
			dst := r.cfg.FindSchedule(name)
			if dst == nil {
				continue
			}
			if err := r.ws.ActionMove(act, sched, dst); err != nil {
				r.logger.Warn("failed to move artefacts",
					"action", act.Name, "destination", name, "error", err)
			}
		}
	}
	if err := r.ws.ActionClean(act); err != nil {
		r.logger.Warn("failed to clean action workspace",
			"action", act.Name, "error", err)
	}

	// Chain the next action of a sequential schedule unless the schedule
	// got suppressed or told to stop in the meantime.
	if sched.Mode == domain.ExecSequential {
		if next := sched.NextAction(act); next != nil {
			if sched.State != domain.StateSuppressed && !sched.StopRunning {
				r.actionExec(sched, next)
			}
		}
	}

	r.reconcileSchedule(sched)
}

// reconcileSchedule moves a running schedule back to enabled (or
// suppressed) once its last action has left the running state, counts a
// failed run, and consumes the input queue after a fully successful one.
// A schedule disabled by its start event stays disabled, but its run is
// still counted and its queue cleaned the same way.
func (r *Runner) reconcileSchedule(sched *domain.Schedule) {
	disabled := sched.State == domain.StateDisabled
	if sched.State != domain.StateRunning && !disabled {
		return
	}

	if !disabled {
		sched.State = domain.StateEnabled
		if sched.CntActiveSupp > 0 {
			sched.State = domain.StateSuppressed
		}
	}

	failed, succeeded, running := 0, 0, false
	for _, act := range sched.Actions {
		if act.State == domain.StateRunning {
			running = true
		}
		if act.LastStatus != 0 {
			failed++
		} else if !act.LastCompletion.IsZero() {
			succeeded++
		}
	}
	if running {
		if !disabled {
			sched.State = domain.StateRunning
		}
		return
	}

	if failed > 0 {
		sched.CntFailures++
	} else if succeeded > 0 {
		if err := r.ws.ScheduleClean(sched); err != nil {
			r.logger.Warn("failed to clean schedule queue",
				"schedule", sched.Name, "error", err)
		}
	}
}

// actionKill sends SIGTERM to a running action. There is no SIGKILL
// escalation.
func (r *Runner) actionKill(act *domain.Action) {
	if act == nil || act.Name == "" {
		return
	}
	if act.State == domain.StateRunning && act.Pid != 0 {
		if err := syscall.Kill(act.Pid, syscall.SIGTERM); err != nil {
			r.logger.Warn("failed to signal action", "action", act.Name,
				"pid", act.Pid, "error", err)
		}
	}
}
