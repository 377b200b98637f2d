// Package extract scans raw portal responses for session tokens, ephemeral
// field identifiers, error markers, and confirmation payloads.
//
// The remote markup is not a stable contract. Every extractor therefore works
// through an ordered list of independently recognized shapes and fails only
// after exhausting all of them; new observed shapes are added to the list
// without touching stage logic. This is the system's primary defense against
// upstream markup drift.
//
// Recognized token shapes, in priority order:
//   - canonical hidden input field
//   - partial-response update block (CDATA-wrapped)
//   - element with a DOM id ending in the token's suffix
//   - inline script literal assignment
package extract
