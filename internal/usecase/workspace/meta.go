package workspace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"lmapd/internal/domain"
)

// Meta sidecar keys. The sidecar is a sequence of key/value records that
// carries enough context to rebuild a Result without the configuration.
const (
	metaKeyMagic       = "magic"
	metaKeySchedule    = "schedule"
	metaKeyAction      = "action"
	metaKeyTask        = "task"
	metaKeyOptionID    = "option-id"
	metaKeyOptionName  = "option-name"
	metaKeyOptionValue = "option-value"
	metaKeyTag         = "tag"
	metaKeyEvent       = "event"
	metaKeyStart       = "start"
	metaKeyCycle       = "cycle-number"
	metaKeyEnd         = "end"
	metaKeyStatus      = "status"
)

// cycleNumberFormat renders a cycle number instant as an ISO date in UTC.
const cycleNumberFormat = "20060102.150405"

// MetaWriteStart creates the invocation's .meta sidecar (truncating any
// previous one) and records the invocation context: magic, names,
// options, tags, the schedule's event timestamp, the action's start
// timestamp, and the cycle number when one is set.
func (m *Manager) MetaWriteStart(sched *domain.Schedule, act *domain.Action, task *domain.Task) error {
	f, err := m.OpenMeta(sched, act, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	writeKV(w, metaKeyMagic, domain.Magic())
	writeKV(w, metaKeySchedule, sched.Name)
	writeKV(w, metaKeyAction, act.Name)
	writeKV(w, metaKeyTask, act.TaskName)
	for _, opt := range task.Options {
		writeOption(w, opt)
	}
	for _, opt := range act.Options {
		writeOption(w, opt)
	}
	for _, tag := range task.Tags {
		writeKV(w, metaKeyTag, tag)
	}
	for _, tag := range sched.Tags {
		writeKV(w, metaKeyTag, tag)
	}
	for _, tag := range act.Tags {
		writeKV(w, metaKeyTag, tag)
	}
	writeKV(w, metaKeyEvent, strconv.FormatInt(sched.LastInvocation.Unix(), 10))
	writeKV(w, metaKeyStart, strconv.FormatInt(act.LastInvocation.Unix(), 10))
	if sched.CycleNumber != 0 {
		cycle := time.Unix(sched.CycleNumber, 0).UTC().Format(cycleNumberFormat)
		writeKV(w, metaKeyCycle, cycle)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write meta for action %s: %w", act.Name, domain.ErrWorkspace)
	}
	return nil
}

func writeOption(w *bufio.Writer, opt *domain.Option) {
	writeKV(w, metaKeyOptionID, opt.ID)
	writeKV(w, metaKeyOptionName, opt.Name)
	writeKV(w, metaKeyOptionValue, opt.Value)
}

// MetaWriteEnd appends the completion timestamp and exit status to the
// invocation's .meta sidecar.
func (m *Manager) MetaWriteEnd(sched *domain.Schedule, act *domain.Action) error {
	f, err := m.OpenMeta(sched, act, os.O_WRONLY|os.O_APPEND)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	writeKV(w, metaKeyEnd, strconv.FormatInt(act.LastCompletion.Unix(), 10))
	writeKV(w, metaKeyStatus, strconv.Itoa(act.LastStatus))
	if err := w.Flush(); err != nil {
		return fmt.Errorf("append meta for action %s: %w", act.Name, domain.ErrWorkspace)
	}
	return nil
}
