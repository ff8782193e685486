package entity

import "time"

// MatchResult records one reconciliation decision for a statement line.
// Results are append-only: a new decision supersedes the prior one rather
// than deleting it, so the audit trail survives reassignment.
type MatchResult struct {
	ID            int64     `json:"id"`
	LineID        int64     `json:"line_id"`
	InvoiceID     *int64    `json:"invoice_id,omitempty"`
	CombinedScore float64   `json:"combined_score"`
	Decision      string    `json:"decision"`
	DecidedBy     string    `json:"decided_by"`
	Rationale     string    `json:"rationale,omitempty"`
	Superseded    bool      `json:"superseded"`
	DecidedAt     time.Time `json:"decided_at"`
}
