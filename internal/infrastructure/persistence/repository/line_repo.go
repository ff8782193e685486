package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/infrastructure/persistence/sqlite"
)

// LineRepository implements port.LineRepository
type LineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineRepository creates a new statement line repository
func NewLineRepository(db *sql.DB, logger *zap.Logger) port.LineRepository {
	return &LineRepository{db: db, logger: logger}
}

// Create inserts a statement line
func (r *LineRepository) Create(ctx context.Context, line *entity.StatementLine) error {
	query := `
		INSERT INTO statement_lines (
			statement_id, line_number, line_date, invoice_number,
			reference_number, description, amount, match_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		line.StatementID,
		line.LineNumber,
		line.LineDate,
		line.InvoiceNumber,
		line.ReferenceNumber,
		line.Description,
		line.Amount.String(),
		line.MatchStatus,
	)
	if err != nil {
		r.logger.Error("Failed to create statement line",
			zap.Int64("statement_id", line.StatementID),
			zap.Int("line_number", line.LineNumber),
			zap.Error(err))
		return fmt.Errorf("failed to create statement line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	line.ID = id
	return nil
}

// GetByID retrieves a line by its ID
func (r *LineRepository) GetByID(ctx context.Context, id int64) (*entity.StatementLine, error) {
	query := selectLine + ` WHERE id = ?`

	line, err := scanLine(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get line by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get line: %w", err)
	}
	return line, nil
}

// ListByStatementID retrieves all lines of a statement in line order
func (r *LineRepository) ListByStatementID(ctx context.Context, statementID int64) ([]*entity.StatementLine, error) {
	query := selectLine + ` WHERE statement_id = ? ORDER BY line_number`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, statementID)
	if err != nil {
		r.logger.Error("Failed to list lines",
			zap.Int64("statement_id", statementID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.StatementLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// UpdateMatchStatus updates the line's match status
func (r *LineRepository) UpdateMatchStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE statement_lines SET match_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, status, id); err != nil {
		r.logger.Error("Failed to update line status",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update line status: %w", err)
	}
	return nil
}

// SetIgnored marks the line ignored. The gate is one-way: automatic
// passes skip ignored lines from here on.
func (r *LineRepository) SetIgnored(ctx context.Context, id int64) error {
	query := `
		UPDATE statement_lines
		SET is_ignored = 1, match_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, entity.MatchStatusIgnored, id); err != nil {
		r.logger.Error("Failed to ignore line", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to ignore line: %w", err)
	}
	return nil
}

// SetAssistPending toggles the provisional assisted-match marker
func (r *LineRepository) SetAssistPending(ctx context.Context, id int64, pending bool) error {
	query := `UPDATE statement_lines SET assist_pending = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, pending, id); err != nil {
		r.logger.Error("Failed to set assist pending",
			zap.Int64("id", id),
			zap.Bool("pending", pending),
			zap.Error(err))
		return fmt.Errorf("failed to set assist pending: %w", err)
	}
	return nil
}

const selectLine = `
	SELECT id, statement_id, line_number, line_date, invoice_number,
		reference_number, description, amount, is_ignored, assist_pending,
		match_status, created_at, updated_at
	FROM statement_lines`

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLine(row scanner) (*entity.StatementLine, error) {
	var l entity.StatementLine
	var amount string

	err := row.Scan(
		&l.ID,
		&l.StatementID,
		&l.LineNumber,
		&l.LineDate,
		&l.InvoiceNumber,
		&l.ReferenceNumber,
		&l.Description,
		&amount,
		&l.IsIgnored,
		&l.AssistPending,
		&l.MatchStatus,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return &l, nil
}
