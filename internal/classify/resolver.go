package classify

import (
	"context"
	"strings"

	"github.com/civicgate/filingpilot/internal/events"
	"github.com/civicgate/filingpilot/internal/extract"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/monitoring"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/types"
	"go.uber.org/zap"
)

// Outcome is the result of resolving one free-text term against the dynamic
// selection widget. Unresolved terms are a legitimate domain outcome, not a
// protocol error: they are collected and surfaced as warnings while the
// workflow continues.
type Outcome struct {
	Category string
	Term     string
	Resolved bool
	TargetID string
	Reason   string
}

// Warning converts an unresolved outcome into the result-level warning shape.
func (o Outcome) Warning() types.Warning {
	return types.Warning{Category: o.Category, Term: o.Term, Reason: o.Reason}
}

// Config fixes the widget identifiers the resolver works against.
type Config struct {
	// SearchField is the tree's search input; one change event per term.
	SearchField string
	// Family is the name pattern of the tree's ephemeral selectable ids.
	Family string
	// CategoryFamily is the name pattern of category tree-node ids.
	CategoryFamily string
}

// DefaultConfig returns the observed widget identifiers.
func DefaultConfig() Config {
	return Config{
		SearchField:    "wizardForm:classTree:search",
		Family:         `wizardForm:classTree:[\w:]+`,
		CategoryFamily: `wizardForm:classTree:cat[\w:]*`,
	}
}

// Resolver turns free-text category terms into fired change events on the
// session's rendering of the selection widget. Identifiers are server-invented
// per session and never reused across stages, so every resolution starts from
// the latest response body.
type Resolver struct {
	cfg      Config
	events   *events.Dispatcher
	extract  *extract.Extractor
	log      *logging.Logger
	metrics  *monitoring.Metrics
	outcomes []Outcome
}

// New creates a resolver. metrics may be nil.
func New(cfg Config, dispatcher *events.Dispatcher, ex *extract.Extractor, log *logging.Logger, metrics *monitoring.Metrics) *Resolver {
	return &Resolver{
		cfg:     cfg,
		events:  dispatcher,
		extract: ex,
		log:     log,
		metrics: metrics,
	}
}

// Outcomes returns every outcome recorded by Apply, in processing order.
func (r *Resolver) Outcomes() []Outcome {
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Unresolved returns only the soft failures.
func (r *Resolver) Unresolved() []Outcome {
	var out []Outcome
	for _, o := range r.outcomes {
		if !o.Resolved {
			out = append(out, o)
		}
	}
	return out
}

// Apply processes every classification in input order. Protocol errors abort;
// unresolved terms are recorded and processing continues.
func (r *Resolver) Apply(ctx context.Context, sess *session.Session, classifications []types.Classification) error {
	for _, c := range classifications {
		if c.WholeCategory {
			if err := r.applyWholeCategory(ctx, sess, c); err != nil {
				return err
			}
			continue
		}
		for _, term := range c.Terms {
			if err := r.applyTerm(ctx, sess, c.Category, term); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyWholeCategory expands the category's tree node and selects its first
// selectable child.
func (r *Resolver) applyWholeCategory(ctx context.Context, sess *session.Session, c types.Classification) error {
	body, err := sess.LastBody()
	if err != nil {
		return err
	}

	node := r.matchCandidate(r.extract.SelectionCandidates(body, r.cfg.CategoryFamily), c.Category)
	if node == "" {
		r.record(Outcome{Category: c.Category, Resolved: false, Reason: "category node not found"})
		return nil
	}

	// Expanding is a click; the server renders the children in response.
	if err := r.events.FireClick(ctx, sess, node, nil); err != nil {
		return err
	}

	expanded, err := sess.LastBody()
	if err != nil {
		return err
	}
	candidates := r.extract.SelectionCandidates(expanded, r.cfg.Family)
	if len(candidates) == 0 {
		r.record(Outcome{Category: c.Category, Resolved: false, Reason: "expanded node rendered no selectable entries"})
		return nil
	}

	first := candidates[0]
	if err := r.events.FireChange(ctx, sess, first.ID, "true", nil); err != nil {
		return err
	}
	r.record(Outcome{Category: c.Category, Resolved: true, TargetID: first.ID})
	return nil
}

// applyTerm issues one search exchange for the term and fires the resolved
// identifier's change event.
func (r *Resolver) applyTerm(ctx context.Context, sess *session.Session, category, term string) error {
	if err := r.events.FireChange(ctx, sess, r.cfg.SearchField, term, nil); err != nil {
		return err
	}

	body, err := sess.LastBody()
	if err != nil {
		return err
	}

	target := r.matchCandidate(r.extract.SelectionCandidates(body, r.cfg.Family), term)
	if target == "" {
		r.log.Info("classification term unresolved",
			zap.String("category", category),
			zap.String("term", term),
		)
		r.record(Outcome{Category: category, Term: term, Resolved: false, Reason: "no selection entry matched the term"})
		return nil
	}

	if err := r.events.FireChange(ctx, sess, target, "true", nil); err != nil {
		return err
	}
	r.record(Outcome{Category: category, Term: term, Resolved: true, TargetID: target})
	return nil
}

// matchCandidate resolves a label against candidates: exact match first, then
// prefix, then case-insensitive substring. Matching is restricted to the
// given label; a broader hit is worse than no hit.
func (r *Resolver) matchCandidate(candidates []extract.Candidate, label string) string {
	for _, c := range candidates {
		if c.Label == label {
			return c.ID
		}
	}
	for _, c := range candidates {
		if strings.HasPrefix(c.Label, label) {
			return c.ID
		}
	}
	lower := strings.ToLower(label)
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Label), lower) {
			return c.ID
		}
	}
	return ""
}

func (r *Resolver) record(o Outcome) {
	r.outcomes = append(r.outcomes, o)
	if r.metrics != nil {
		outcome := "resolved"
		if !o.Resolved {
			outcome = "unresolved"
		}
		r.metrics.SelectionsTotal.WithLabelValues(outcome).Inc()
	}
}
