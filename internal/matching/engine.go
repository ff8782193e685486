package matching

import (
	"context"

	"github.com/restobooks/vendor-recon/internal/domain/entity"
)

// Outcome is the result of matching one statement line: the full ranked
// candidate list plus the routed decision for the best candidate.
type Outcome struct {
	Ranked  []Candidate
	Best    *Candidate
	Routing Routing
}

// Strategy is a matching strategy for a single line. The deterministic
// Engine and the assisted matcher are the two implementations; both feed
// the same Policy.
type Strategy interface {
	MatchLine(ctx context.Context, vendorID int64, line *entity.StatementLine, claimed map[int64]bool) (*Outcome, error)
}

// Engine is the deterministic matching strategy: retrieval, scoring, and
// routing with no external calls.
type Engine struct {
	retriever *Retriever
	scorer    *Scorer
	policy    *Policy
}

// NewEngine wires the deterministic pipeline.
func NewEngine(retriever *Retriever, scorer *Scorer, policy *Policy) *Engine {
	return &Engine{retriever: retriever, scorer: scorer, policy: policy}
}

// MatchLine retrieves candidates for the line, scores them, and routes
// the best score through the decision policy.
func (e *Engine) MatchLine(ctx context.Context, vendorID int64, line *entity.StatementLine, claimed map[int64]bool) (*Outcome, error) {
	invoices, err := e.retriever.Retrieve(ctx, vendorID, line, claimed)
	if err != nil {
		return nil, err
	}

	ranked := e.scorer.ScoreCandidates(line, invoices)
	outcome := &Outcome{Ranked: ranked}
	if len(ranked) > 0 {
		outcome.Best = &ranked[0]
	}
	outcome.Routing = e.policy.Route(outcome.Best)
	return outcome, nil
}

var _ Strategy = (*Engine)(nil)
