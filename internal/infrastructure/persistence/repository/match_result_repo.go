package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/infrastructure/persistence/sqlite"
)

// MatchResultRepository implements port.MatchResultRepository
type MatchResultRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMatchResultRepository creates a new match result repository
func NewMatchResultRepository(db *sql.DB, logger *zap.Logger) port.MatchResultRepository {
	return &MatchResultRepository{db: db, logger: logger}
}

// Create appends a match result
func (r *MatchResultRepository) Create(ctx context.Context, result *entity.MatchResult) error {
	query := `
		INSERT INTO match_results (
			line_id, invoice_id, combined_score, decision, decided_by, rationale
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	var invoiceID interface{}
	if result.InvoiceID != nil {
		invoiceID = *result.InvoiceID
	}

	res, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		result.LineID,
		invoiceID,
		result.CombinedScore,
		result.Decision,
		result.DecidedBy,
		result.Rationale,
	)
	if err != nil {
		r.logger.Error("Failed to create match result",
			zap.Int64("line_id", result.LineID),
			zap.String("decision", result.Decision),
			zap.Error(err))
		return fmt.Errorf("failed to create match result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	result.ID = id
	return nil
}

// GetCurrentByLineID returns the one non-superseded result for a line
func (r *MatchResultRepository) GetCurrentByLineID(ctx context.Context, lineID int64) (*entity.MatchResult, error) {
	query := selectMatchResult + ` WHERE line_id = ? AND superseded = 0 ORDER BY id DESC LIMIT 1`

	result, err := scanMatchResult(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, lineID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get current match result",
			zap.Int64("line_id", lineID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	return result, nil
}

// SupersedeByLineID retires every current result for the line. Prior
// results stay on record for audit.
func (r *MatchResultRepository) SupersedeByLineID(ctx context.Context, lineID int64) error {
	query := `UPDATE match_results SET superseded = 1 WHERE line_id = ? AND superseded = 0`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, lineID); err != nil {
		r.logger.Error("Failed to supersede match results",
			zap.Int64("line_id", lineID),
			zap.Error(err))
		return fmt.Errorf("failed to supersede match results: %w", err)
	}
	return nil
}

// ListByLineID returns the full decision history for a line, newest first
func (r *MatchResultRepository) ListByLineID(ctx context.Context, lineID int64) ([]*entity.MatchResult, error) {
	query := selectMatchResult + ` WHERE line_id = ? ORDER BY id DESC`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, lineID)
	if err != nil {
		r.logger.Error("Failed to list match results",
			zap.Int64("line_id", lineID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}
	defer rows.Close()

	var results []*entity.MatchResult
	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

const selectMatchResult = `
	SELECT id, line_id, invoice_id, combined_score, decision,
		decided_by, rationale, superseded, decided_at
	FROM match_results`

func scanMatchResult(row scanner) (*entity.MatchResult, error) {
	var m entity.MatchResult
	var invoiceID sql.NullInt64

	err := row.Scan(
		&m.ID,
		&m.LineID,
		&invoiceID,
		&m.CombinedScore,
		&m.Decision,
		&m.DecidedBy,
		&m.Rationale,
		&m.Superseded,
		&m.DecidedAt,
	)
	if err != nil {
		return nil, err
	}

	if invoiceID.Valid {
		m.InvoiceID = &invoiceID.Int64
	}
	return &m, nil
}
