// Package dispatch arms the timers behind configured events and turns
// due instants into Fire values for the scheduler loop. Periodic and
// one-off events are modelled as cron.Schedule implementations;
// calendar events tick once per second through the pure matcher in the
// domain package.
package dispatch
