package entity

// Match status constants for StatementLine
const (
	MatchStatusUnmatched     = "unmatched"
	MatchStatusSuggested     = "suggested"
	MatchStatusAutoMatched   = "auto_matched"
	MatchStatusManualMatched = "manual_matched"
	MatchStatusIgnored       = "ignored"
)

// Decision constants for MatchResult
const (
	DecisionAutoMatched         = "AUTO_MATCHED"
	DecisionFlaggedForReview    = "FLAGGED_FOR_REVIEW"
	DecisionNoMatchFound        = "NO_MATCH_FOUND"
	DecisionAssistedAutoMatched = "ASSISTED_AUTO_MATCHED"
	DecisionManuallyConfirmed   = "MANUALLY_CONFIRMED"
	DecisionManuallyReassigned  = "MANUALLY_REASSIGNED"
	DecisionIgnored             = "IGNORED"
)

// Decider constants for MatchResult
const (
	DecidedBySystem   = "system"
	DecidedByAssisted = "assisted"
	DecidedByHuman    = "human"
)

// Invoice status constants
const (
	InvoiceStatusOpen     = "open"
	InvoiceStatusApproved = "approved"
	InvoiceStatusPaid     = "paid"
	InvoiceStatusVoided   = "voided"
)

// LineStatusForDecision maps a match decision to the statement line status
// it leaves behind.
func LineStatusForDecision(decision string) string {
	switch decision {
	case DecisionAutoMatched, DecisionAssistedAutoMatched:
		return MatchStatusAutoMatched
	case DecisionFlaggedForReview:
		return MatchStatusSuggested
	case DecisionManuallyConfirmed, DecisionManuallyReassigned:
		return MatchStatusManualMatched
	case DecisionIgnored:
		return MatchStatusIgnored
	default:
		return MatchStatusUnmatched
	}
}
