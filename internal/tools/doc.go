// Package tools provides host helpers shared by daemon modules.
//
// Ownership boundary:
// - command execution helpers
package tools
