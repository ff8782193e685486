package port

import (
	"context"
)

// SemanticCandidate is one invoice offered to the semantic matcher as
// context, with the deterministic sub-scores attached.
type SemanticCandidate struct {
	InvoiceID     int64   `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	InvoiceDate   string  `json:"invoice_date"`
	Description   string  `json:"description,omitempty"`
	TotalAmount   string  `json:"total_amount"`
	CombinedScore float64 `json:"combined_score"`
}

// SemanticMatchRequest is the bounded context for one assisted-match call.
type SemanticMatchRequest struct {
	LineDescription string              `json:"line_description"`
	LineDate        string              `json:"line_date"`
	LineAmount      string              `json:"line_amount"`
	InvoiceNumber   string              `json:"invoice_number,omitempty"`
	ReferenceNumber string              `json:"reference_number,omitempty"`
	Candidates      []SemanticCandidate `json:"candidates"`
}

// SemanticMatchResult is the collaborator's verdict: an optional matched
// invoice, a confidence value, and a natural-language rationale.
type SemanticMatchResult struct {
	Matched    bool    `json:"matched"`
	InvoiceID  *int64  `json:"invoice_id,omitempty"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// SemanticMatcher is the external semantic-matching collaborator invoked
// per unresolved line. The call is blocking and timeout-bounded; the
// caller must not hold a transaction open across it.
type SemanticMatcher interface {
	MatchLine(ctx context.Context, req *SemanticMatchRequest) (*SemanticMatchResult, error)
}
