package stage

import (
	"context"
	"fmt"

	"github.com/civicgate/filingpilot/internal/events"
	"github.com/civicgate/filingpilot/internal/extract"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/monitoring"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/transport"
	"github.com/civicgate/filingpilot/internal/types"
)

// Event is one declared pre-commit interaction of a stage. The slice a
// handler returns is the protocol-mandated firing order: firing out of order
// produces server-side validation errors rather than exceptions, so order is
// a correctness property tests can assert on.
type Event struct {
	Kind   events.Kind
	Target string
	Value  string
	Extra  *transport.Form
}

// Handler drives one of the eight wizard screens.
type Handler interface {
	// Number is the 1-based stage number.
	Number() int
	// Events returns the pre-commit events in required firing order.
	Events(app *types.Application) []Event
	// Fields builds the stage's field set as a pure function of app:
	// identical input yields a byte-identical encoding.
	Fields(app *types.Application) *transport.Form
	// Execute runs the stage against the live session, mutating it in
	// place. Failure aborts the whole run; abandoned server-side wizard
	// state goes stale, so there is no partial resume.
	Execute(ctx context.Context, app *types.Application, sess *session.Session) error
}

// Failure reports an aborted stage with a best-available reason.
type Failure struct {
	Stage   int
	Code    types.ErrorCode
	Message string
	Fields  []types.FieldError
}

func (f *Failure) Error() string {
	return fmt.Sprintf("stage %d failed (%s): %s", f.Stage, f.Code, f.Message)
}

// Deps bundles the collaborators every handler shares.
type Deps struct {
	Client  *transport.Client
	Extract *extract.Extractor
	Events  *events.Dispatcher
	Log     *logging.Logger
	Metrics *monitoring.Metrics
	// Path is the wizard endpoint all submissions post to.
	Path string
}
