package dispatch

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Periodic and one-off events are driven by cron.Schedule values so the
// dispatcher computes fire times through one interface regardless of the
// event variant.
var (
	_ cron.Schedule = alignedInterval{}
	_ cron.Schedule = onceAt{}
)

// alignedInterval fires every interval, aligned to an optional start
// instant. With a start in the past the next fire lands on the next
// whole multiple of interval relative to start, not relative to now.
type alignedInterval struct {
	start    time.Time
	hasStart bool
	interval time.Duration
}

func (s alignedInterval) Next(t time.Time) time.Time {
	if !s.hasStart {
		return t.Add(s.interval)
	}
	if t.Before(s.start) {
		return s.start
	}
	elapsed := t.Sub(s.start)
	periods := elapsed/s.interval + 1
	return s.start.Add(periods * s.interval)
}

// onceAt fires once at a fixed instant and never again.
type onceAt struct {
	at time.Time
}

func (s onceAt) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}
