package runner

import (
	"lmapd/internal/domain"
	"lmapd/internal/usecase/dispatch"
)

// suppressionFire walks the suppressions and activates or deactivates
// those whose start or end event fired. It runs before executeFire on
// the same loop tick so a suppression starting together with a schedule
// wins.
func (r *Runner) suppressionFire(fire dispatch.Fire) {
	for _, supp := range r.cfg.Suppressions {
		if supp.State == domain.SuppressionDisabled {
			continue
		}
		if supp.Name == "" {
			r.logger.Error("disabling unnamed suppression")
			supp.State = domain.SuppressionDisabled
			continue
		}

		if supp.StartEvent == fire.Name {
			if supp.State == domain.SuppressionEnabled {
				r.suppressionStart(supp)
			} else {
				r.logger.Warn("suppression not enabled - skipping",
					"suppression", supp.Name)
			}
		}

		if supp.EndEvent == fire.Name {
			if supp.State == domain.SuppressionActive {
				r.suppressionEnd(supp)
			} else {
				r.logger.Warn("suppression not active - skipping",
					"suppression", supp.Name)
			}
		}
	}
}

// suppressionStart activates a suppression: every schedule and action
// whose suppression-tags glob-match one of the patterns gets its
// active-suppression counter bumped and, on the 0→1 edge, moves from
// enabled to suppressed. With stop-running set, running actions of
// matching schedules are killed.
func (r *Runner) suppressionStart(supp *domain.Suppression) {
	if len(supp.Match) == 0 {
		return
	}
	supp.State = domain.SuppressionActive

	for _, sched := range r.cfg.Schedules {
		if domain.MatchAny(supp.Match, sched.SuppressionTags) {
			if sched.State == domain.StateEnabled {
				sched.State = domain.StateSuppressed
			}
			if supp.StopRunning {
				sched.StopRunning = true
			}
			sched.CntActiveSupp++
		}

		for _, act := range sched.Actions {
			if act.State == domain.StateDisabled {
				continue
			}

			if sched.StopRunning {
				r.actionKill(act)
			}

			if domain.MatchAny(supp.Match, act.SuppressionTags) {
				if act.State == domain.StateEnabled {
					act.State = domain.StateSuppressed
				}
				if act.State == domain.StateRunning && !sched.StopRunning && supp.StopRunning {
					r.actionKill(act)
					act.State = domain.StateSuppressed
				}
				act.CntActiveSupp++
			}
		}
	}
}

// suppressionEnd deactivates a suppression: matching entities get their
// counter decremented and return to enabled once no suppression holds
// them any more.
func (r *Runner) suppressionEnd(supp *domain.Suppression) {
	if len(supp.Match) == 0 {
		return
	}
	supp.State = domain.SuppressionEnabled

	for _, sched := range r.cfg.Schedules {
		if domain.MatchAny(supp.Match, sched.SuppressionTags) {
			if sched.CntActiveSupp > 0 {
				sched.CntActiveSupp--
			}
			if sched.CntActiveSupp == 0 {
				if sched.State == domain.StateSuppressed {
					sched.State = domain.StateEnabled
				}
				sched.StopRunning = false
			}
		}

		for _, act := range sched.Actions {
			if act.State == domain.StateDisabled {
				continue
			}
			if domain.MatchAny(supp.Match, act.SuppressionTags) {
				if act.CntActiveSupp > 0 {
					act.CntActiveSupp--
				}
				if act.CntActiveSupp == 0 && act.State == domain.StateSuppressed {
					act.State = domain.StateEnabled
				}
			}
		}
	}
}
