// Package alarm contains the alarm domain types shared by the store, planner
// and scheduler. It does not persist or arm anything on its own.
package alarm
