// Package lifecycle owns host lifecycle signal handling.
//
// Ownership boundary:
// - signal vocabulary (boot completed, own package replaced, other package replaced)
//
// - the notifier callback invoked by the host bridge
//
// - the reschedule request queue consumed by the daemon
//
// The notifier never reads or writes alarm data. Alarm recovery is requested
// through the Rescheduler collaborator and runs outside the host callback.
package lifecycle
