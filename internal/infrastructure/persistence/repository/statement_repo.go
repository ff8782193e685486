package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/infrastructure/persistence/sqlite"
	"github.com/restobooks/vendor-recon/pkg/apperrors"
)

// StatementRepository implements port.StatementRepository
type StatementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(db *sql.DB, logger *zap.Logger) port.StatementRepository {
	return &StatementRepository{db: db, logger: logger}
}

// Create inserts a statement header. A UNIQUE violation on the
// (vendor_id, period_start, period_end) key surfaces as a conflict so the
// caller can look up the committed statement.
func (r *StatementRepository) Create(ctx context.Context, statement *entity.VendorStatement) error {
	query := `
		INSERT INTO vendor_statements (
			uid, vendor_id, venue_id, statement_number,
			period_start, period_end, declared_total, imported_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		statement.UID,
		statement.VendorID,
		statement.VenueID,
		statement.StatementNumber,
		statement.PeriodStart,
		statement.PeriodEnd,
		statement.DeclaredTotal.String(),
		statement.ImportedBy,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return apperrors.Conflict(0, "statement already exists for vendor and period")
		}
		r.logger.Error("Failed to create statement",
			zap.Int64("vendor_id", statement.VendorID),
			zap.Error(err))
		return fmt.Errorf("failed to create statement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	statement.ID = id
	return nil
}

// GetByID retrieves a statement by its ID
func (r *StatementRepository) GetByID(ctx context.Context, id int64) (*entity.VendorStatement, error) {
	query := selectStatement + ` WHERE id = ?`

	statement, err := r.scanStatement(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get statement by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}
	return statement, nil
}

// GetByVendorPeriod retrieves the statement occupying the idempotency key
func (r *StatementRepository) GetByVendorPeriod(ctx context.Context, vendorID int64, periodStart, periodEnd time.Time) (*entity.VendorStatement, error) {
	query := selectStatement + ` WHERE vendor_id = ? AND period_start = ? AND period_end = ?`

	statement, err := r.scanStatement(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, vendorID, periodStart, periodEnd))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get statement by vendor period",
			zap.Int64("vendor_id", vendorID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}
	return statement, nil
}

const selectStatement = `
	SELECT id, uid, vendor_id, venue_id, statement_number,
		period_start, period_end, declared_total, imported_by, created_at
	FROM vendor_statements`

func (r *StatementRepository) scanStatement(row *sql.Row) (*entity.VendorStatement, error) {
	var s entity.VendorStatement
	var declaredTotal string

	err := row.Scan(
		&s.ID,
		&s.UID,
		&s.VendorID,
		&s.VenueID,
		&s.StatementNumber,
		&s.PeriodStart,
		&s.PeriodEnd,
		&declaredTotal,
		&s.ImportedBy,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.DeclaredTotal, err = decimal.NewFromString(declaredTotal)
	if err != nil {
		return nil, fmt.Errorf("invalid declared_total %q: %w", declaredTotal, err)
	}
	return &s, nil
}
