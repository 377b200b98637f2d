// Package events issues the pre-commit interaction protocol: synthetic
// dropdown-change, checkbox-change, and click requests the remote view-model
// requires before certain final values are accepted. Each event performs one
// partial-update exchange and absorbs the resulting token rotation.
package events
