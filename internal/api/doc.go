// Package api owns the daemon HTTP surface.
//
// Ownership boundary:
// - alarm CRUD routes (each mutation re-arms the alarm)
//
// - notification listing and snooze/dismiss actions
//
// - host lifecycle delivery into the notifier (token guarded when configured)
//
// - health, readiness and prometheus metrics
package api
