package stage

import (
	"context"

	"github.com/civicgate/filingpilot/internal/events"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/transport"
	"github.com/civicgate/filingpilot/internal/types"
	"go.uber.org/zap"
)

// stage8 is the confirmation exchange. The submission is posted with
// redirects disabled: the transaction id normally arrives in the 302
// Location header, with a body-embedded pattern as fallback. Both paths are
// supported.
type stage8 struct {
	base
}

// NewStage8 creates the confirmation stage.
func NewStage8(deps *Deps) Handler {
	return &stage8{base: base{deps}}
}

func (s *stage8) Number() int { return 8 }

func (s *stage8) Events(app *types.Application) []Event {
	return []Event{
		{Kind: events.Change, Target: "wizardForm:confirmAccuracy", Value: "true"},
	}
}

func (s *stage8) Fields(app *types.Application) *transport.Form {
	f := transport.NewForm()
	f.Set("wizardForm:confirmAccuracy", "true")
	return f
}

func (s *stage8) Execute(ctx context.Context, app *types.Application, sess *session.Session) error {
	if err := s.fire(ctx, sess, 8, s.Events(app)); err != nil {
		return err
	}

	resp, err := s.submitNoRedirect(ctx, sess, 8, s.Fields(app))
	if err != nil {
		return err
	}

	txID := s.Extract.TransactionIDFromLocation(resp.Location)
	if txID == "" {
		txID = s.Extract.TransactionID(resp.Body)
	}
	if txID == "" {
		return &Failure{
			Stage:   8,
			Code:    types.ErrTokenExtraction,
			Message: "confirmation yielded no transaction identifier in redirect location or body",
		}
	}

	if err := sess.SetTransactionID(txID); err != nil {
		return &Failure{Stage: 8, Code: types.ErrInternal, Message: err.Error()}
	}

	// When the id came from a redirect, fetch the confirmation page behind
	// it: the orchestrator reads fees and identifiers off the last body.
	if resp.IsRedirect() {
		follow, err := s.Client.Get(ctx, resp.Location, nil)
		if err != nil {
			s.Log.Warn("confirmation page fetch failed", zap.Error(err))
			return nil
		}
		sess.RecordResponse(follow.Body)
	}

	s.Log.Info("filing confirmed", zap.String("transaction_id", txID))
	return nil
}
