// Package daemon owns the alarmd process lifecycle.
//
// Lifecycle order:
// - open store -> build scheduler/notifier/api -> reschedule all -> serve
//
// - serve runs HTTP, the tick loop and the reschedule drain until SIGINT/SIGTERM
//
// Lifecycle signals from the host never block the caller; the recovery
// work they request runs on the reschedule drain.
package daemon
