// Package taxonomy is the client for the advisory classification-term lookup
// service used for optional pre-flight checks of free-text terms.
package taxonomy
