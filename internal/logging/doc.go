// Package logging provides structured logging using uber/zap.
//
// Production mode emits JSON for machine parsing; development mode emits
// colored console output. Response bodies are never logged at any level:
// they can carry applicant identity data.
package logging
