package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/matching"
	"github.com/restobooks/vendor-recon/pkg/apperrors"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ImportLine is one statement line in an import request.
type ImportLine struct {
	LineDate        time.Time
	Description     string
	Amount          decimal.Decimal
	InvoiceNumber   string
	ReferenceNumber string
}

// ImportRequest is the payload for one statement import.
type ImportRequest struct {
	VendorID        int64
	VenueID         int64
	StatementNumber string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	DeclaredTotal   decimal.Decimal
	ImportedBy      string
	Lines           []ImportLine
}

// ImportSummary is the aggregate outcome of an import.
type ImportSummary struct {
	StatementID    int64   `json:"statement_id"`
	StatementUID   string  `json:"statement_uid"`
	TotalLines     int     `json:"total_lines"`
	MatchedLines   int     `json:"matched_lines"`
	UnmatchedLines int     `json:"unmatched_lines"`
	ReviewRequired bool    `json:"review_required"`
	MatchRate      float64 `json:"match_rate"`
}

// IngestionService coordinates atomic statement import with the
// deterministic matching pass.
type IngestionService interface {
	ImportStatement(ctx context.Context, req *ImportRequest) (*ImportSummary, error)
	Summarize(ctx context.Context, statementID int64) (*ImportSummary, error)
}

type ingestionServiceImpl struct {
	txm           port.TransactionManager
	statementRepo port.StatementRepository
	lineRepo      port.LineRepository
	resultRepo    port.MatchResultRepository
	engine        matching.Strategy
	logger        Logger
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(
	txm port.TransactionManager,
	statementRepo port.StatementRepository,
	lineRepo port.LineRepository,
	resultRepo port.MatchResultRepository,
	engine matching.Strategy,
	logger Logger,
) IngestionService {
	return &ingestionServiceImpl{
		txm:           txm,
		statementRepo: statementRepo,
		lineRepo:      lineRepo,
		resultRepo:    resultRepo,
		engine:        engine,
		logger:        logger,
	}
}

// ImportStatement persists the statement and its lines and runs the
// deterministic match pass over every line, all in one transaction.
// Re-importing an already committed (vendor, period) key returns the
// original summary; a concurrent duplicate that slips past that check
// fails on the uniqueness constraint and surfaces as a conflict carrying
// the committed statement id.
func (s *ingestionServiceImpl) ImportStatement(ctx context.Context, req *ImportRequest) (*ImportSummary, error) {
	if err := validateImport(req); err != nil {
		return nil, err
	}

	// Idempotent fast path for retried imports.
	existing, err := s.statementRepo.GetByVendorPeriod(ctx, req.VendorID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, apperrors.Persistence("failed to check for existing statement", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate import returned existing statement",
			"vendor_id", req.VendorID,
			"statement_id", existing.ID)
		return s.Summarize(ctx, existing.ID)
	}

	statement := &entity.VendorStatement{
		UID:             uuid.NewString(),
		VendorID:        req.VendorID,
		VenueID:         req.VenueID,
		StatementNumber: req.StatementNumber,
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
		DeclaredTotal:   req.DeclaredTotal,
		ImportedBy:      req.ImportedBy,
	}

	summary := &ImportSummary{TotalLines: len(req.Lines)}

	err = s.txm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.statementRepo.Create(txCtx, statement); err != nil {
			return err
		}

		// Invoices exclusively claimed by earlier lines in this pass.
		claimed := make(map[int64]bool)

		for i, in := range req.Lines {
			line := &entity.StatementLine{
				StatementID:     statement.ID,
				LineNumber:      i + 1,
				LineDate:        in.LineDate,
				InvoiceNumber:   in.InvoiceNumber,
				ReferenceNumber: in.ReferenceNumber,
				Description:     in.Description,
				Amount:          in.Amount,
				MatchStatus:     entity.MatchStatusUnmatched,
			}
			if err := s.lineRepo.Create(txCtx, line); err != nil {
				return err
			}

			outcome, err := s.engine.MatchLine(txCtx, req.VendorID, line, claimed)
			if err != nil {
				return fmt.Errorf("match line %d: %w", line.LineNumber, err)
			}

			result := &entity.MatchResult{
				LineID:    line.ID,
				Decision:  outcome.Routing.Decision,
				DecidedBy: entity.DecidedBySystem,
				Rationale: outcome.Routing.Rationale,
			}
			if outcome.Best != nil {
				result.CombinedScore = outcome.Best.CombinedScore
			}

			switch outcome.Routing.Decision {
			case entity.DecisionAutoMatched:
				invoiceID := outcome.Best.Invoice.ID
				result.InvoiceID = &invoiceID
				claimed[invoiceID] = true
				summary.MatchedLines++
			case entity.DecisionFlaggedForReview:
				// Surface the best candidate; alternatives remain
				// retrievable by rescoring at review time.
				invoiceID := outcome.Best.Invoice.ID
				result.InvoiceID = &invoiceID
				summary.ReviewRequired = true
			default:
				summary.UnmatchedLines++
			}

			if err := s.resultRepo.Create(txCtx, result); err != nil {
				return err
			}
			if err := s.lineRepo.UpdateMatchStatus(txCtx, line.ID, entity.LineStatusForDecision(outcome.Routing.Decision)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if ae, ok := apperrors.As(err); ok && ae.Kind == apperrors.KindConflict {
			return nil, s.conflictWithExisting(ctx, req)
		}
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		s.logger.Error("Statement import failed", "error", err, "vendor_id", req.VendorID)
		return nil, apperrors.Persistence("statement import rolled back", err)
	}

	summary.StatementID = statement.ID
	summary.StatementUID = statement.UID
	if summary.TotalLines > 0 {
		summary.MatchRate = float64(summary.MatchedLines) / float64(summary.TotalLines)
	}

	s.logger.Info("Statement imported",
		"statement_id", statement.ID,
		"vendor_id", req.VendorID,
		"total_lines", summary.TotalLines,
		"matched_lines", summary.MatchedLines,
		"match_rate", summary.MatchRate)

	return summary, nil
}

// Summarize recomputes the aggregate counts for a committed statement.
func (s *ingestionServiceImpl) Summarize(ctx context.Context, statementID int64) (*ImportSummary, error) {
	statement, err := s.statementRepo.GetByID(ctx, statementID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load statement", err)
	}
	if statement == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("statement %d not found", statementID))
	}

	lines, err := s.lineRepo.ListByStatementID(ctx, statementID)
	if err != nil {
		return nil, apperrors.Persistence("failed to load statement lines", err)
	}

	summary := &ImportSummary{
		StatementID:  statement.ID,
		StatementUID: statement.UID,
		TotalLines:   len(lines),
	}
	for _, line := range lines {
		switch line.MatchStatus {
		case entity.MatchStatusAutoMatched, entity.MatchStatusManualMatched:
			summary.MatchedLines++
		case entity.MatchStatusSuggested:
			summary.ReviewRequired = true
		case entity.MatchStatusUnmatched:
			summary.UnmatchedLines++
		}
	}
	if summary.TotalLines > 0 {
		summary.MatchRate = float64(summary.MatchedLines) / float64(summary.TotalLines)
	}
	return summary, nil
}

// conflictWithExisting resolves the committed statement occupying the key
// after a uniqueness violation.
func (s *ingestionServiceImpl) conflictWithExisting(ctx context.Context, req *ImportRequest) error {
	existing, err := s.statementRepo.GetByVendorPeriod(ctx, req.VendorID, req.PeriodStart, req.PeriodEnd)
	if err != nil || existing == nil {
		return apperrors.Conflict(0, "statement already exists for vendor and period")
	}
	return apperrors.Conflict(existing.ID,
		fmt.Sprintf("statement %d already covers vendor %d for this period", existing.ID, req.VendorID))
}

func validateImport(req *ImportRequest) error {
	switch {
	case req == nil:
		return apperrors.Validation("EMPTY_REQUEST", "import request is required")
	case req.VendorID <= 0:
		return apperrors.Validation("MISSING_VENDOR", "vendor_id is required")
	case req.VenueID <= 0:
		return apperrors.Validation("MISSING_VENUE", "venue_id is required")
	case req.PeriodStart.IsZero() || req.PeriodEnd.IsZero():
		return apperrors.Validation("MISSING_PERIOD", "period_start and period_end are required")
	case req.PeriodEnd.Before(req.PeriodStart):
		return apperrors.Validation("INVALID_PERIOD", "period_end must not precede period_start")
	case len(req.Lines) == 0:
		return apperrors.Validation("NO_LINES", "statement must contain at least one line")
	}

	for i, line := range req.Lines {
		if line.LineDate.IsZero() {
			return apperrors.Validation("MISSING_LINE_DATE", fmt.Sprintf("line %d: date is required", i+1))
		}
		if line.Description == "" {
			return apperrors.Validation("MISSING_LINE_DESCRIPTION", fmt.Sprintf("line %d: description is required", i+1))
		}
	}
	return nil
}
