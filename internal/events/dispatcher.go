package events

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/civicgate/filingpilot/internal/extract"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/monitoring"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/transport"
	"go.uber.org/zap"
)

// Kind is the synthetic interaction type of an event exchange.
type Kind string

const (
	Change Kind = "change"
	Click  Kind = "click"
)

// Partial-ajax wire fields.
const (
	partialAjaxParam   = "javax.faces.partial.ajax"
	sourceParam        = "javax.faces.source"
	executeParam       = "javax.faces.partial.execute"
	renderParam        = "javax.faces.partial.render"
	behaviorEventParam = "javax.faces.behavior.event"
	formParam          = "wizardForm"
	windowQueryParam   = "jfwid"
)

// PortalError reports that an event exchange produced a recognized error
// signature instead of a partial update.
type PortalError struct {
	Marker *extract.Marker
}

func (e *PortalError) Error() string {
	return fmt.Sprintf("portal rejected event exchange: %s", e.Marker.Message)
}

// Dispatcher issues the synthetic interaction requests the remote view-model
// requires before it accepts final field values. The view-model distinguishes
// "final submit value" from "live control interaction": several
// server-computed fields populate only as a side effect of the matching
// event, and submitting without it yields stale or rejected state.
type Dispatcher struct {
	client  *transport.Client
	extract *extract.Extractor
	path    string
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a dispatcher posting to the given wizard path. metrics may be
// nil.
func New(client *transport.Client, ex *extract.Extractor, path string, log *logging.Logger, metrics *monitoring.Metrics) *Dispatcher {
	return &Dispatcher{
		client:  client,
		extract: ex,
		path:    path,
		log:     log,
		metrics: metrics,
	}
}

// FireChange issues a dropdown/checkbox change event for targetID carrying
// value, then absorbs whatever token updates the partial response carries.
func (d *Dispatcher) FireChange(ctx context.Context, sess *session.Session, targetID, value string, extra *transport.Form) error {
	form, err := d.eventForm(sess, Change, targetID, extra)
	if err != nil {
		return err
	}
	form.Set(targetID, value)
	return d.exchange(ctx, sess, Change, targetID, form)
}

// FireClick issues a click event for targetID.
func (d *Dispatcher) FireClick(ctx context.Context, sess *session.Session, targetID string, extra *transport.Form) error {
	form, err := d.eventForm(sess, Click, targetID, extra)
	if err != nil {
		return err
	}
	return d.exchange(ctx, sess, Click, targetID, form)
}

// eventForm builds the partial-update body naming exactly which widget
// changed.
func (d *Dispatcher) eventForm(sess *session.Session, kind Kind, targetID string, extra *transport.Form) (*transport.Form, error) {
	tokens, err := sess.Tokens()
	if err != nil {
		return nil, err
	}

	form := transport.NewForm()
	form.Set(partialAjaxParam, "true")
	form.Set(sourceParam, targetID)
	form.Set(executeParam, targetID)
	form.Set(renderParam, targetID)
	form.Set(behaviorEventParam, string(kind))
	form.Set(formParam, formParam)
	form.Set(extract.ViewStateParam, tokens.ViewState)
	form.Set(extract.ClientWindowParam, tokens.ClientWindow)
	form.Set(extract.NonceParam, tokens.Nonce)
	form.Merge(extra)
	return form, nil
}

func (d *Dispatcher) exchange(ctx context.Context, sess *session.Session, kind Kind, targetID string, form *transport.Form) error {
	tokens, err := sess.Tokens()
	if err != nil {
		return err
	}
	query := url.Values{windowQueryParam: {tokens.WindowID()}}

	start := time.Now()
	resp, err := d.client.PostForm(ctx, d.path, query, form)
	if err != nil {
		d.observe(string(kind), "transport_error", start)
		return fmt.Errorf("%s event on %q: %w", kind, targetID, err)
	}
	sess.RecordResponse(resp.Body)

	if marker := d.extract.ErrorMarkers(resp.Body); marker != nil {
		d.observe(string(kind), "rejected", start)
		return &PortalError{Marker: marker}
	}

	// Only tokens present in the partial response are rotated.
	if err := sess.Update(d.extract.Tokens(resp.Body)); err != nil {
		return err
	}

	d.observe(string(kind), "ok", start)
	d.log.Debug("pre-commit event accepted",
		zap.String("kind", string(kind)),
		zap.String("target", targetID),
		zap.Int("step", sess.StepCount()),
	)
	return nil
}

func (d *Dispatcher) observe(kind, outcome string, start time.Time) {
	if d.metrics != nil {
		d.metrics.ObserveExchange(kind, outcome, time.Since(start))
	}
}
