package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/civicgate/filingpilot/internal/classify"
	"github.com/civicgate/filingpilot/internal/config"
	"github.com/civicgate/filingpilot/internal/documents"
	"github.com/civicgate/filingpilot/internal/events"
	"github.com/civicgate/filingpilot/internal/extract"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/monitoring"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/stage"
	"github.com/civicgate/filingpilot/internal/taxonomy"
	"github.com/civicgate/filingpilot/internal/transport"
	"github.com/civicgate/filingpilot/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State names the orchestrator's position in one run.
type State string

const (
	StateUninitialized      State = "uninitialized"
	StateSessionEstablished State = "session_established"
	StateStages             State = "stages"
	StateConfirmed          State = "confirmed"
	StateDocumentsRetrieved State = "documents_retrieved"
	StateFailed             State = "failed"
)

// Finalizer is the document finalization collaborator.
type Finalizer interface {
	Finalize(ctx context.Context, transactionID string) (*documents.Receipt, error)
	FetchDocuments(ctx context.Context, transactionID string) ([]types.Document, error)
}

// Validator is the advisory taxonomy collaborator.
type Validator interface {
	Validate(ctx context.Context, term, category string) (*taxonomy.ValidationResult, error)
}

// Orchestrator runs complete workflows. One Run is strictly sequential and
// never reentrant; many Runs may execute concurrently because every run
// builds its own session, transport client, and cookie jar.
type Orchestrator struct {
	cfg       *config.Config
	log       *logging.Logger
	metrics   *monitoring.Metrics
	extract   *extract.Extractor
	finalizer Finalizer
	validator Validator
}

// New creates an orchestrator. metrics and validator may be nil; a nil
// finalizer skips document retrieval and fails the run at that point.
func New(cfg *config.Config, log *logging.Logger, metrics *monitoring.Metrics, finalizer Finalizer, validator Validator) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		log:       log,
		metrics:   metrics,
		extract:   extract.New(),
		finalizer: finalizer,
		validator: validator,
	}
}

// Run drives one application through session init, the eight stages, the
// confirmation exchange, and document retrieval. It always returns a
// Result; the caller never sees raw portal markup.
func (o *Orchestrator) Run(ctx context.Context, app *types.Application) *types.Result {
	runID := uuid.NewString()
	log := &logging.Logger{Logger: o.log.With(zap.String("run_id", runID))}

	if o.metrics != nil {
		o.metrics.WorkflowsInFlight.Inc()
		defer o.metrics.WorkflowsInFlight.Dec()
	}

	result := o.run(ctx, app, log)

	if o.metrics != nil {
		outcome := "success"
		if !result.Success {
			outcome = string(result.ErrorCode)
		}
		o.metrics.WorkflowsTotal.WithLabelValues(outcome).Inc()
	}
	return result
}

func (o *Orchestrator) run(ctx context.Context, app *types.Application, log *logging.Logger) *types.Result {
	state := StateUninitialized

	client, err := transport.New(o.cfg.Portal)
	if err != nil {
		return types.Failure(types.ErrInternal, 0, err.Error())
	}

	sess := session.New()
	if failure := o.establishSession(ctx, client, sess, log); failure != nil {
		return failure
	}
	state = StateSessionEstablished
	log.Info("session established", zap.String("state", string(state)))

	o.preflight(ctx, app, log)

	dispatcher := events.New(client, o.extract, o.cfg.Portal.WizardPath, log, o.metrics)
	resolver := classify.New(classify.DefaultConfig(), dispatcher, o.extract, log, o.metrics)
	pipeline := stage.NewPipeline(&stage.Deps{
		Client:  client,
		Extract: o.extract,
		Events:  dispatcher,
		Log:     log,
		Metrics: o.metrics,
		Path:    o.cfg.Portal.WizardPath,
	}, resolver)

	state = StateStages
	if err := pipeline.Run(ctx, app, sess); err != nil {
		return o.failureResult(err, sess, log)
	}
	state = StateConfirmed

	transactionID, err := sess.TransactionID()
	if err != nil || transactionID == "" {
		return types.Failure(types.ErrInternal, 8, "confirmed run carries no transaction id")
	}
	log.Info("workflow confirmed",
		zap.String("state", string(state)),
		zap.String("transaction_id", transactionID),
		zap.Int("steps", sess.StepCount()),
	)

	result := o.assembleSuccess(ctx, sess, pipeline.Outcomes(), transactionID, log)
	if result.Success {
		state = StateDocumentsRetrieved
		log.Info("documents retrieved",
			zap.String("state", string(state)),
			zap.Int("documents", len(result.Documents)),
		)
	}
	return result
}

// establishSession performs the init exchange. Any shortfall here is a
// SessionInitError: no stage request is issued.
func (o *Orchestrator) establishSession(ctx context.Context, client *transport.Client, sess *session.Session, log *logging.Logger) *types.Result {
	resp, err := client.Get(ctx, o.cfg.Portal.EntryPath, nil)
	if err != nil {
		return types.Failure(types.ErrSessionInit, 0, err.Error())
	}
	if marker := o.extract.ErrorMarkers(resp.Body); marker != nil {
		return types.Failure(types.ErrSessionInit, 0, marker.Message)
	}

	tokens, err := o.extract.RequireTokens(resp.Body, "")
	if err != nil {
		var tokenErr *extract.TokenError
		if errors.As(err, &tokenErr) {
			return types.Failure(types.ErrSessionInit, 0, tokenErr.Error())
		}
		return types.Failure(types.ErrSessionInit, 0, err.Error())
	}

	if err := sess.Initialize(tokens.WindowRoot(), tokens); err != nil {
		return types.Failure(types.ErrSessionInit, 0, err.Error())
	}
	sess.RecordResponse(resp.Body)
	return nil
}

// preflight runs the advisory taxonomy check. Findings are logged, never
// binding: the pipeline resolves terms against the live widget regardless.
func (o *Orchestrator) preflight(ctx context.Context, app *types.Application, log *logging.Logger) {
	if o.validator == nil {
		return
	}
	for _, c := range app.Classifications {
		for _, term := range c.Terms {
			result, err := o.validator.Validate(ctx, term, c.Category)
			if err != nil {
				log.Debug("taxonomy preflight unavailable", zap.Error(err))
				return
			}
			if !result.Found {
				log.Info("taxonomy preflight: term unknown",
					zap.String("category", c.Category),
					zap.String("term", term),
					zap.Int("suggestions", len(result.Suggestions)),
				)
			}
		}
	}
}

// failureResult maps a pipeline failure onto the external result shape,
// preserving the session snapshot for diagnostics.
func (o *Orchestrator) failureResult(err error, sess *session.Session, log *logging.Logger) *types.Result {
	var failure *stage.Failure
	if !errors.As(err, &failure) {
		return types.Failure(types.ErrInternal, 0, err.Error())
	}

	if snapshot, snapErr := sess.Snapshot(); snapErr == nil {
		// Last-known tokens stay readable for postmortems even though the
		// run is over.
		log.Warn("workflow failed",
			zap.Int("stage", failure.Stage),
			zap.String("code", string(failure.Code)),
			zap.Int("steps", snapshot.StepCount),
			zap.String("client_window", snapshot.Tokens.ClientWindow),
		)
	}

	result := types.Failure(failure.Code, failure.Stage, failure.Message)
	result.FieldErrors = failure.Fields
	return result
}

// assembleSuccess reads the confirmation payload off the session, then
// exchanges the transaction id for the receipt and documents.
func (o *Orchestrator) assembleSuccess(ctx context.Context, sess *session.Session, outcomes []classify.Outcome, transactionID string, log *logging.Logger) *types.Result {
	body, _ := sess.LastBody()

	result := &types.Result{
		Success:             true,
		TransactionID:       transactionID,
		ConfirmationID:      o.extract.ConfirmationID(body),
		SubmissionTime:      time.Now().UTC(),
		Fees:                o.extract.Fees(body),
		PaymentInstructions: o.extract.PaymentInstructions(body),
	}
	if result.ConfirmationID == "" {
		result.ConfirmationID = transactionID
	}

	// Unresolved selections are warnings on an otherwise successful
	// result, never silently dropped.
	for _, outcome := range outcomes {
		if !outcome.Resolved {
			result.Warnings = append(result.Warnings, outcome.Warning())
		}
	}

	if o.finalizer == nil {
		result.Success = false
		result.ErrorCode = types.ErrDocuments
		result.Message = "no document finalization service configured"
		return result
	}

	receipt, err := o.finalizer.Finalize(ctx, transactionID)
	if err != nil {
		log.Error("finalization failed", zap.Error(err))
		result.Success = false
		result.ErrorCode = types.ErrDocuments
		result.Message = err.Error()
		return result
	}
	result.ReferenceID = receipt.ReferenceID
	if !receipt.CreationTime.IsZero() {
		result.SubmissionTime = receipt.CreationTime
	}

	docs, err := o.finalizer.FetchDocuments(ctx, transactionID)
	if err != nil {
		log.Error("document retrieval failed", zap.Error(err))
		result.Success = false
		result.ErrorCode = types.ErrDocuments
		result.Message = err.Error()
		return result
	}
	result.Documents = docs
	return result
}
