// Package documents is the client for the document finalization service:
// committing a confirmed transaction and unpacking the issued receipt
// bundle.
package documents
