// Package monitoring exposes Prometheus metrics for exchanges, stages, and
// workflow runs.
package monitoring
