package service

import (
	"context"
	"fmt"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/matching"
	"github.com/restobooks/vendor-recon/pkg/apperrors"
)

// LineView pairs a statement line with its current match result.
type LineView struct {
	Line    *entity.StatementLine `json:"line"`
	Current *entity.MatchResult   `json:"current_result,omitempty"`
}

// AssistOutcome is the result of one assisted-match invocation.
type AssistOutcome struct {
	Matched        bool    `json:"matched"`
	InvoiceID      *int64  `json:"invoice_id,omitempty"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale,omitempty"`
	RequiresReview bool    `json:"requires_review"`
	Decision       string  `json:"decision,omitempty"`
}

// ReconcileService manages line-scoped reconciliation operations after
// the initial import: review reads, ignore, assisted and manual matching.
type ReconcileService interface {
	GetStatement(ctx context.Context, statementID int64) (*entity.VendorStatement, error)
	ListLines(ctx context.Context, statementID int64) ([]*LineView, error)
	ListHistory(ctx context.Context, lineID int64) ([]*entity.MatchResult, error)
	IgnoreLine(ctx context.Context, lineID int64) error
	AssistedMatch(ctx context.Context, lineID int64) (*AssistOutcome, error)
	ManualConfirm(ctx context.Context, lineID int64) error
	ManualReassign(ctx context.Context, lineID, invoiceID int64) error
}

type reconcileServiceImpl struct {
	txm              port.TransactionManager
	statementRepo    port.StatementRepository
	lineRepo         port.LineRepository
	resultRepo       port.MatchResultRepository
	invoiceRepo      port.InvoiceRepository
	engine           matching.Strategy
	policy           *matching.Policy
	semantic         port.SemanticMatcher
	assistCandidates int
	logger           Logger
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	txm port.TransactionManager,
	statementRepo port.StatementRepository,
	lineRepo port.LineRepository,
	resultRepo port.MatchResultRepository,
	invoiceRepo port.InvoiceRepository,
	engine matching.Strategy,
	policy *matching.Policy,
	semantic port.SemanticMatcher,
	assistCandidates int,
	logger Logger,
) ReconcileService {
	if assistCandidates <= 0 {
		assistCandidates = 5
	}
	return &reconcileServiceImpl{
		txm:              txm,
		statementRepo:    statementRepo,
		lineRepo:         lineRepo,
		resultRepo:       resultRepo,
		invoiceRepo:      invoiceRepo,
		engine:           engine,
		policy:           policy,
		semantic:         semantic,
		assistCandidates: assistCandidates,
		logger:           logger,
	}
}

// GetStatement retrieves a statement header
func (s *reconcileServiceImpl) GetStatement(ctx context.Context, statementID int64) (*entity.VendorStatement, error) {
	statement, err := s.statementRepo.GetByID(ctx, statementID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load statement", err)
	}
	if statement == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("statement %d not found", statementID))
	}
	return statement, nil
}

// ListLines returns the statement's lines with their current results
func (s *reconcileServiceImpl) ListLines(ctx context.Context, statementID int64) ([]*LineView, error) {
	if _, err := s.GetStatement(ctx, statementID); err != nil {
		return nil, err
	}

	lines, err := s.lineRepo.ListByStatementID(ctx, statementID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load lines", err)
	}

	views := make([]*LineView, 0, len(lines))
	for _, line := range lines {
		current, err := s.resultRepo.GetCurrentByLineID(ctx, line.ID)
		if err != nil {
			return nil, apperrors.Persistence("failed to load match result", err)
		}
		views = append(views, &LineView{Line: line, Current: current})
	}
	return views, nil
}

// ListHistory returns the full decision trail for a line, newest first
func (s *reconcileServiceImpl) ListHistory(ctx context.Context, lineID int64) ([]*entity.MatchResult, error) {
	if _, err := s.getLine(ctx, lineID); err != nil {
		return nil, err
	}
	results, err := s.resultRepo.ListByLineID(ctx, lineID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load match history", err)
	}
	return results, nil
}

// IgnoreLine permanently excludes a line from automatic matching. The
// gate is one-way; the line stays visible and can still be manually
// reassigned.
func (s *reconcileServiceImpl) IgnoreLine(ctx context.Context, lineID int64) error {
	line, err := s.getLine(ctx, lineID)
	if err != nil {
		return err
	}
	if line.IsIgnored {
		return nil
	}

	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.resultRepo.SupersedeByLineID(txCtx, lineID); err != nil {
			return err
		}
		result := &entity.MatchResult{
			LineID:    lineID,
			Decision:  entity.DecisionIgnored,
			DecidedBy: entity.DecidedByHuman,
			Rationale: "line excluded from automatic matching by user",
		}
		if err := s.resultRepo.Create(txCtx, result); err != nil {
			return err
		}
		return s.lineRepo.SetIgnored(txCtx, lineID)
	})
	if err != nil {
		return apperrors.Persistence("failed to ignore line", err)
	}

	s.logger.Info("Line ignored", "line_id", lineID)
	return nil
}

// AssistedMatch delegates an unresolved line to the semantic matcher.
// The collaborator call runs outside any transaction: the line is marked
// pending, the call awaited, and the final result committed in a short
// second transaction. Collaborator failure leaves the line untouched.
func (s *reconcileServiceImpl) AssistedMatch(ctx context.Context, lineID int64) (*AssistOutcome, error) {
	line, err := s.getLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if err := assistEligible(line); err != nil {
		return nil, err
	}

	statement, err := s.GetStatement(ctx, line.StatementID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.MatchLine(ctx, statement.VendorID, line, nil)
	if err != nil {
		return nil, apperrors.Persistence("failed to build candidate context", err)
	}

	req := s.buildSemanticRequest(line, outcome.Ranked)

	if err := s.lineRepo.SetAssistPending(ctx, lineID, true); err != nil {
		return nil, apperrors.Persistence("failed to mark line pending", err)
	}
	// Once the marker is set, every exit must clear it or the line stays
	// locked out of assisted matching. The commit transaction clears it
	// itself; all other paths fall through to this.
	committed := false
	defer func() {
		if committed {
			return
		}
		if clearErr := s.lineRepo.SetAssistPending(ctx, lineID, false); clearErr != nil {
			s.logger.Error("Failed to clear assist marker", "error", clearErr, "line_id", lineID)
		}
	}()

	verdict, err := s.semantic.MatchLine(ctx, req)
	if err != nil {
		s.logger.Error("Semantic matcher unavailable", "error", err, "line_id", lineID)
		return nil, apperrors.CollaboratorUnavailable("assisted match failed, line state unchanged", err)
	}

	if !verdict.Matched || verdict.InvoiceID == nil {
		return &AssistOutcome{
			Matched:        false,
			Confidence:     verdict.Confidence,
			Rationale:      verdict.Rationale,
			RequiresReview: true,
		}, nil
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, *verdict.InvoiceID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load suggested invoice", err)
	}
	if invoice == nil || invoice.VendorID != statement.VendorID {
		// The collaborator named an invoice outside the vendor's ledger;
		// treat it as no suggestion.
		s.logger.Error("Semantic matcher suggested foreign invoice",
			"line_id", lineID, "invoice_id", *verdict.InvoiceID)
		return &AssistOutcome{
			Matched:        false,
			Confidence:     verdict.Confidence,
			Rationale:      verdict.Rationale,
			RequiresReview: true,
		}, nil
	}

	routing := s.policy.RouteConfidence(verdict.Confidence)

	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.resultRepo.SupersedeByLineID(txCtx, lineID); err != nil {
			return err
		}
		result := &entity.MatchResult{
			LineID:        lineID,
			InvoiceID:     verdict.InvoiceID,
			CombinedScore: verdict.Confidence,
			Decision:      routing.Decision,
			DecidedBy:     entity.DecidedByAssisted,
			Rationale:     combineRationale(routing.Rationale, verdict.Rationale),
		}
		if err := s.resultRepo.Create(txCtx, result); err != nil {
			return err
		}
		if err := s.lineRepo.UpdateMatchStatus(txCtx, lineID, entity.LineStatusForDecision(routing.Decision)); err != nil {
			return err
		}
		return s.lineRepo.SetAssistPending(txCtx, lineID, false)
	})
	if err != nil {
		return nil, apperrors.Persistence("failed to commit assisted match", err)
	}
	committed = true

	s.logger.Info("Assisted match committed",
		"line_id", lineID,
		"decision", routing.Decision,
		"confidence", verdict.Confidence)

	return &AssistOutcome{
		Matched:        routing.Decision == entity.DecisionAssistedAutoMatched,
		InvoiceID:      verdict.InvoiceID,
		Confidence:     verdict.Confidence,
		Rationale:      verdict.Rationale,
		RequiresReview: routing.Decision == entity.DecisionFlaggedForReview,
		Decision:       routing.Decision,
	}, nil
}

// ManualConfirm accepts the currently suggested invoice for a line.
func (s *reconcileServiceImpl) ManualConfirm(ctx context.Context, lineID int64) error {
	line, err := s.getLine(ctx, lineID)
	if err != nil {
		return err
	}
	if line.MatchStatus != entity.MatchStatusSuggested {
		return apperrors.Validation("NO_SUGGESTION", "line has no pending suggestion to confirm")
	}

	current, err := s.resultRepo.GetCurrentByLineID(ctx, lineID)
	if err != nil {
		return apperrors.Persistence("failed to load current result", err)
	}
	if current == nil || current.InvoiceID == nil {
		return apperrors.Validation("NO_SUGGESTION", "line has no pending suggestion to confirm")
	}

	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.resultRepo.SupersedeByLineID(txCtx, lineID); err != nil {
			return err
		}
		result := &entity.MatchResult{
			LineID:        lineID,
			InvoiceID:     current.InvoiceID,
			CombinedScore: current.CombinedScore,
			Decision:      entity.DecisionManuallyConfirmed,
			DecidedBy:     entity.DecidedByHuman,
			Rationale:     "suggestion confirmed by reviewer",
		}
		if err := s.resultRepo.Create(txCtx, result); err != nil {
			return err
		}
		return s.lineRepo.UpdateMatchStatus(txCtx, lineID, entity.MatchStatusManualMatched)
	})
	if err != nil {
		return apperrors.Persistence("failed to confirm match", err)
	}

	s.logger.Info("Match confirmed", "line_id", lineID, "invoice_id", *current.InvoiceID)
	return nil
}

// ManualReassign points a line at a reviewer-chosen invoice. Reassignment
// is allowed even for ignored lines; the ignore gate keeps blocking
// automatic passes only.
func (s *reconcileServiceImpl) ManualReassign(ctx context.Context, lineID, invoiceID int64) error {
	line, err := s.getLine(ctx, lineID)
	if err != nil {
		return err
	}

	statement, err := s.GetStatement(ctx, line.StatementID)
	if err != nil {
		return err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return apperrors.Persistence("failed to load invoice", err)
	}
	if invoice == nil {
		return apperrors.NotFound(fmt.Sprintf("invoice %d not found", invoiceID))
	}
	if invoice.VendorID != statement.VendorID {
		return apperrors.Validation("VENDOR_MISMATCH", "invoice belongs to a different vendor")
	}

	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.resultRepo.SupersedeByLineID(txCtx, lineID); err != nil {
			return err
		}
		result := &entity.MatchResult{
			LineID:    lineID,
			InvoiceID: &invoiceID,
			Decision:  entity.DecisionManuallyReassigned,
			DecidedBy: entity.DecidedByHuman,
			Rationale: fmt.Sprintf("reassigned to invoice %s by reviewer", invoice.InvoiceNumber),
		}
		if err := s.resultRepo.Create(txCtx, result); err != nil {
			return err
		}
		return s.lineRepo.UpdateMatchStatus(txCtx, lineID, entity.MatchStatusManualMatched)
	})
	if err != nil {
		return apperrors.Persistence("failed to reassign match", err)
	}

	s.logger.Info("Match reassigned", "line_id", lineID, "invoice_id", invoiceID)
	return nil
}

func (s *reconcileServiceImpl) getLine(ctx context.Context, lineID int64) (*entity.StatementLine, error) {
	line, err := s.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load line", err)
	}
	if line == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("line %d not found", lineID))
	}
	return line, nil
}

// assistEligible gates the assisted matcher to unresolved lines.
func assistEligible(line *entity.StatementLine) error {
	switch {
	case line.IsIgnored:
		return apperrors.Validation("LINE_IGNORED", "ignored lines are excluded from automatic matching")
	case line.AssistPending:
		return apperrors.Validation("ASSIST_PENDING", "an assisted match is already in flight for this line")
	case line.MatchStatus == entity.MatchStatusAutoMatched || line.MatchStatus == entity.MatchStatusManualMatched:
		return apperrors.Validation("LINE_ALREADY_MATCHED", "line is already matched")
	}
	return nil
}

func (s *reconcileServiceImpl) buildSemanticRequest(line *entity.StatementLine, ranked []matching.Candidate) *port.SemanticMatchRequest {
	n := s.assistCandidates
	if n > len(ranked) {
		n = len(ranked)
	}

	req := &port.SemanticMatchRequest{
		LineDescription: line.Description,
		LineDate:        line.LineDate.Format("2006-01-02"),
		LineAmount:      line.Amount.String(),
		InvoiceNumber:   line.InvoiceNumber,
		ReferenceNumber: line.ReferenceNumber,
		Candidates:      make([]port.SemanticCandidate, 0, n),
	}
	for _, c := range ranked[:n] {
		req.Candidates = append(req.Candidates, port.SemanticCandidate{
			InvoiceID:     c.Invoice.ID,
			InvoiceNumber: c.Invoice.InvoiceNumber,
			InvoiceDate:   c.Invoice.InvoiceDate.Format("2006-01-02"),
			Description:   c.Invoice.Description,
			TotalAmount:   c.Invoice.TotalAmount.String(),
			CombinedScore: c.CombinedScore,
		})
	}
	return req
}

func combineRationale(routing, model string) string {
	if model == "" {
		return routing
	}
	return routing + "; " + model
}
