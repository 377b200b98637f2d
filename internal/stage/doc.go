// Package stage drives the eight screens of the remote wizard. Each handler
// builds its field set as a pure function of the application, fires its
// pre-commit events in a fixed declared order, submits with the stage's
// transition code, and replaces the session tokens from the response.
//
// Error handling per submission: the generic error-page signature is fatal
// and aborts with the stage number; inline field-validation messages fail
// the stage with per-field text. Either way the whole run aborts, because
// abandoned server-side wizard state cannot be resumed.
package stage
