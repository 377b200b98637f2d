package stage

import (
	"context"

	"github.com/civicgate/filingpilot/internal/classify"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/transport"
	"github.com/civicgate/filingpilot/internal/types"
)

// stage5 runs the classification selection sub-flow, then marks the primary
// category and submits.
type stage5 struct {
	base
	resolver *classify.Resolver
}

// NewStage5 creates the classification stage around a resolver. The
// resolver's outcomes survive the stage for the orchestrator to read.
func NewStage5(deps *Deps, resolver *classify.Resolver) Handler {
	return &stage5{base: base{deps}, resolver: resolver}
}

func (s *stage5) Number() int { return 5 }

// Events is empty: selection events target ephemeral identifiers resolved
// per run by the sub-flow, so they cannot be declared statically.
func (s *stage5) Events(app *types.Application) []Event { return nil }

// Fields carries only the primary-category marking. It is a single field
// independent of the already-fired selection events.
func (s *stage5) Fields(app *types.Application) *transport.Form {
	f := transport.NewForm()
	primary := ""
	if p := app.PrimaryClassification(); p != nil {
		primary = p.Category
	}
	f.Set("wizardForm:classification:primary", primary)
	return f
}

func (s *stage5) Execute(ctx context.Context, app *types.Application, sess *session.Session) error {
	if err := s.resolver.Apply(ctx, sess, app.Classifications); err != nil {
		return s.asFailure(5, err)
	}
	return s.submit(ctx, sess, 5, s.Fields(app))
}
