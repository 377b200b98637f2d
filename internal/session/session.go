package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUninitialized is returned by all accessors before Initialize succeeds.
var ErrUninitialized = errors.New("session not initialized")

// ErrTransactionSet is returned when a transaction id is assigned twice.
var ErrTransactionSet = errors.New("transaction id already set")

// Tokens is the opaque bundle correlating requests to one portal session.
// ClientWindow carries a server-incremented ":n" suffix that must be mirrored
// in the next request URL.
type Tokens struct {
	ViewState    string
	ClientWindow string
	Nonce        string
}

// Merge overlays the non-empty fields of partial onto t. Servers omit tokens
// they did not rotate, so an absent field always keeps its previous value.
func (t Tokens) Merge(partial Tokens) Tokens {
	if partial.ViewState != "" {
		t.ViewState = partial.ViewState
	}
	if partial.ClientWindow != "" {
		t.ClientWindow = partial.ClientWindow
	}
	if partial.Nonce != "" {
		t.Nonce = partial.Nonce
	}
	return t
}

// WindowID returns the URL-side window identifier derived from ClientWindow.
func (t Tokens) WindowID() string {
	return t.ClientWindow
}

// WindowRoot returns ClientWindow with its incrementing suffix stripped.
func (t Tokens) WindowRoot() string {
	if i := strings.LastIndex(t.ClientWindow, ":"); i > 0 {
		return t.ClientWindow[:i]
	}
	return t.ClientWindow
}

// Snapshot is a read-only view of the session for diagnostics.
type Snapshot struct {
	BaseID        string
	Tokens        Tokens
	StepCount     int
	TransactionID string
}

// Session is the mutable context for one workflow run. It is owned by exactly
// one run: concurrent runs each construct their own Session, so no locking is
// carried here. One Session must never be touched by more than one in-flight
// exchange.
type Session struct {
	baseID        string
	tokens        Tokens
	stepCount     int
	lastBody      string
	transactionID string
	initialized   bool
}

// New returns an empty, uninitialized session.
func New() *Session {
	return &Session{}
}

// Initialize populates the session from the init exchange. The base
// identifier is captured once and immutable afterwards. All three tokens are
// required: an incomplete bundle cannot correlate follow-up requests.
func (s *Session) Initialize(baseID string, t Tokens) error {
	if s.initialized {
		return fmt.Errorf("session already initialized for %q", s.baseID)
	}
	if t.ViewState == "" || t.ClientWindow == "" || t.Nonce == "" {
		return fmt.Errorf("incomplete token bundle: viewState=%t clientWindow=%t nonce=%t",
			t.ViewState != "", t.ClientWindow != "", t.Nonce != "")
	}
	s.baseID = baseID
	s.tokens = t
	s.initialized = true
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (s *Session) Initialized() bool {
	return s.initialized
}

// Update merges the non-empty fields of partial into the current bundle.
func (s *Session) Update(partial Tokens) error {
	if !s.initialized {
		return ErrUninitialized
	}
	s.tokens = s.tokens.Merge(partial)
	return nil
}

// Replace overwrites the full bundle after a stage submission. Fields the
// response did not refresh must be pre-merged by the caller; Replace refuses
// a bundle that would null one out.
func (s *Session) Replace(t Tokens) error {
	if !s.initialized {
		return ErrUninitialized
	}
	if t.ViewState == "" || t.ClientWindow == "" || t.Nonce == "" {
		return fmt.Errorf("replace would clear token fields")
	}
	s.tokens = t
	return nil
}

// Tokens returns the current bundle.
func (s *Session) Tokens() (Tokens, error) {
	if !s.initialized {
		return Tokens{}, ErrUninitialized
	}
	return s.tokens, nil
}

// BaseID returns the identifier captured at initialization.
func (s *Session) BaseID() (string, error) {
	if !s.initialized {
		return "", ErrUninitialized
	}
	return s.baseID, nil
}

// RecordResponse stores the latest raw response body and bumps the step
// counter. The body is consumed by the extractor on the following stage.
func (s *Session) RecordResponse(body string) {
	s.lastBody = body
	s.stepCount++
}

// LastBody returns the most recent raw response body.
func (s *Session) LastBody() (string, error) {
	if !s.initialized {
		return "", ErrUninitialized
	}
	return s.lastBody, nil
}

// StepCount reports how many exchanges this session has recorded. Diagnostic
// only; nothing branches on it.
func (s *Session) StepCount() int {
	return s.stepCount
}

// SetTransactionID records the final transaction id exactly once.
func (s *Session) SetTransactionID(id string) error {
	if !s.initialized {
		return ErrUninitialized
	}
	if s.transactionID != "" {
		return ErrTransactionSet
	}
	s.transactionID = id
	return nil
}

// TransactionID returns the final transaction id, empty until confirmation.
func (s *Session) TransactionID() (string, error) {
	if !s.initialized {
		return "", ErrUninitialized
	}
	return s.transactionID, nil
}

// Snapshot returns a diagnostic copy of the session state.
func (s *Session) Snapshot() (Snapshot, error) {
	if !s.initialized {
		return Snapshot{}, ErrUninitialized
	}
	return Snapshot{
		BaseID:        s.baseID,
		Tokens:        s.tokens,
		StepCount:     s.stepCount,
		TransactionID: s.transactionID,
	}, nil
}
