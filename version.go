// Package steward is the command execution engine behind the steward
// server administration panel.
package steward

// Version is the current steward release.
const Version = "0.3.0"
