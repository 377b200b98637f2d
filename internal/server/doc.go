// Package server exposes the workflow engine over REST: one synchronous
// submission endpoint plus health and metrics.
package server
