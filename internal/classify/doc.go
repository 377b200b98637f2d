// Package classify resolves free-text classification terms into the
// ephemeral selection-widget identifiers of the current session, firing one
// pre-commit change event per resolved term.
package classify
