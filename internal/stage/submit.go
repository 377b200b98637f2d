package stage

import (
	"context"
	"errors"
	"net/url"

	"github.com/civicgate/filingpilot/internal/events"
	"github.com/civicgate/filingpilot/internal/extract"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/transport"
	"github.com/civicgate/filingpilot/internal/types"
	"go.uber.org/zap"
)

// base carries the shared submit/fire mechanics all handlers build on.
type base struct {
	*Deps
}

// fire runs a stage's declared events in order, translating a portal
// rejection into a stage failure.
func (b *base) fire(ctx context.Context, sess *session.Session, stage int, evs []Event) error {
	for _, ev := range evs {
		var err error
		switch ev.Kind {
		case events.Click:
			err = b.Events.FireClick(ctx, sess, ev.Target, ev.Extra)
		default:
			err = b.Events.FireChange(ctx, sess, ev.Target, ev.Value, ev.Extra)
		}
		if err != nil {
			return b.asFailure(stage, err)
		}
	}
	return nil
}

// submit posts a stage's field set with its transition code, inspects the
// response for error signatures, and replaces the session tokens.
func (b *base) submit(ctx context.Context, sess *session.Session, stage int, fields *transport.Form) error {
	return b.post(ctx, sess, stage, fields, false)
}

// submitNoRedirect is submit with auto-redirect disabled, for the
// confirmation exchange whose payload may only exist in the Location header.
func (b *base) submitNoRedirect(ctx context.Context, sess *session.Session, stage int, fields *transport.Form) (*transport.Response, error) {
	resp, err := b.postRaw(ctx, sess, stage, fields, true)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *base) post(ctx context.Context, sess *session.Session, stage int, fields *transport.Form, noRedirect bool) error {
	_, err := b.postRaw(ctx, sess, stage, fields, noRedirect)
	return err
}

func (b *base) postRaw(ctx context.Context, sess *session.Session, stage int, fields *transport.Form, noRedirect bool) (*transport.Response, error) {
	tokens, err := sess.Tokens()
	if err != nil {
		return nil, &Failure{Stage: stage, Code: types.ErrInternal, Message: err.Error()}
	}

	form := fields.Clone()
	form.Set(formParam, formParam)
	form.Set(transitionParam, TransitionCode(stage))
	form.Set(extract.ViewStateParam, tokens.ViewState)
	form.Set(extract.ClientWindowParam, tokens.ClientWindow)
	form.Set(extract.NonceParam, tokens.Nonce)

	query := url.Values{windowQuery: {tokens.WindowID()}}

	var resp *transport.Response
	if noRedirect {
		resp, err = b.Client.PostFormNoRedirect(ctx, b.Path, query, form)
	} else {
		resp, err = b.Client.PostForm(ctx, b.Path, query, form)
	}
	if err != nil {
		return nil, &Failure{Stage: stage, Code: types.ErrTransport, Message: err.Error()}
	}
	sess.RecordResponse(resp.Body)

	if marker := b.Extract.ErrorMarkers(resp.Body); marker != nil {
		return nil, b.markerFailure(stage, marker)
	}

	// A confirmation redirect carries its payload in the Location header;
	// the stub body some servers send alongside it holds no tokens.
	if noRedirect && resp.IsRedirect() {
		return resp, nil
	}

	// Replace, not merge blindly: the submission rotates the bundle, but
	// fields the response omitted keep their previous value.
	fresh := b.Extract.Tokens(resp.Body)
	if fresh.ViewState == "" {
		return nil, &Failure{
			Stage:   stage,
			Code:    types.ErrTokenExtraction,
			Message: (&extract.TokenError{Which: "viewState"}).Error(),
		}
	}
	if err := sess.Replace(tokens.Merge(fresh)); err != nil {
		return nil, &Failure{Stage: stage, Code: types.ErrInternal, Message: err.Error()}
	}

	b.Log.Debug("stage submission accepted",
		zap.Int("stage", stage),
		zap.Int("status", resp.Status),
		zap.Int("step", sess.StepCount()),
	)
	return resp, nil
}

// asFailure wraps an event or transport error into a stage failure,
// preserving an already-typed Failure.
func (b *base) asFailure(stage int, err error) error {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	var portalErr *events.PortalError
	if errors.As(err, &portalErr) {
		return b.markerFailure(stage, portalErr.Marker)
	}
	var tokenErr *extract.TokenError
	if errors.As(err, &tokenErr) {
		return &Failure{Stage: stage, Code: types.ErrTokenExtraction, Message: tokenErr.Error()}
	}
	return &Failure{Stage: stage, Code: types.ErrTransport, Message: err.Error()}
}

func (b *base) markerFailure(stage int, marker *extract.Marker) *Failure {
	code := types.ErrServerErrorPage
	if marker.Kind == extract.MarkerFieldValidation {
		code = types.ErrFieldValidation
	}
	return &Failure{
		Stage:   stage,
		Code:    code,
		Message: marker.Message,
		Fields:  marker.Fields,
	}
}
