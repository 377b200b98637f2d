package stage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/civicgate/filingpilot/internal/classify"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/types"
	"go.uber.org/zap"
)

// Pipeline runs the eight stage handlers strictly in order. Any stage
// failure aborts the run: the abandoned server-side wizard state is stale,
// so there is no partial resume and no stage retry.
type Pipeline struct {
	deps     *Deps
	resolver *classify.Resolver
	handlers []Handler
}

// NewPipeline builds the ordered handler chain around the shared deps and
// the classification resolver.
func NewPipeline(deps *Deps, resolver *classify.Resolver) *Pipeline {
	return &Pipeline{
		deps:     deps,
		resolver: resolver,
		handlers: []Handler{
			NewStage1(deps),
			NewStage2(deps),
			NewStage3(deps),
			NewStage4(deps),
			NewStage5(deps, resolver),
			NewStage6(deps),
			NewStage7(deps),
			NewStage8(deps),
		},
	}
}

// Handlers exposes the ordered chain, mainly for tests asserting declared
// event order.
func (p *Pipeline) Handlers() []Handler {
	out := make([]Handler, len(p.handlers))
	copy(out, p.handlers)
	return out
}

// Outcomes returns the classification outcomes recorded during the run.
func (p *Pipeline) Outcomes() []classify.Outcome {
	return p.resolver.Outcomes()
}

// Run executes the stages sequentially against one session. The returned
// error is always a *Failure.
func (p *Pipeline) Run(ctx context.Context, app *types.Application, sess *session.Session) error {
	for _, h := range p.handlers {
		number := h.Number()
		label := strconv.Itoa(number)
		start := time.Now()

		err := h.Execute(ctx, app, sess)
		if err != nil {
			failure := asPipelineFailure(number, err)
			p.observe(label, string(failure.Code), start)
			p.deps.Log.Warn("stage failed",
				zap.Int("stage", number),
				zap.String("code", string(failure.Code)),
				zap.String("reason", failure.Message),
			)
			return failure
		}

		p.observe(label, "ok", start)
		p.deps.Log.Info("stage complete",
			zap.Int("stage", number),
			zap.Int("step", sess.StepCount()),
			zap.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func (p *Pipeline) observe(stage, outcome string, start time.Time) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.ObserveStage(stage, outcome, time.Since(start))
	}
}

// asPipelineFailure guarantees the *Failure contract for callers.
func asPipelineFailure(stage int, err error) *Failure {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &Failure{Stage: stage, Code: types.ErrInternal, Message: err.Error()}
}
