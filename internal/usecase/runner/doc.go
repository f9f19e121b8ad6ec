// Package runner implements the scheduler at the heart of the daemon: a
// single-goroutine state machine that reacts to event fires, launches
// measurement program children, reaps them, maintains the per-entity
// counters and states, and applies suppressions.
//
// Concurrency model: all Schedule/Action runtime fields are mutated only
// by the loop goroutine inside Run. Children run as separate processes;
// their only channels back are the .data file written through stdout and
// the exit status delivered by a per-child monitor goroutine over the
// reap channel. Signal handlers and timers never touch state directly;
// they enqueue work for the loop.
package runner
