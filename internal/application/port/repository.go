// Package port defines the interfaces between the application services and
// the infrastructure: repositories, the transaction manager, and the
// external semantic-matching collaborator.
package port

import (
	"context"
	"time"

	"github.com/restobooks/vendor-recon/internal/domain/entity"
)

// StatementRepository defines persistence operations for VendorStatement
type StatementRepository interface {
	Create(ctx context.Context, statement *entity.VendorStatement) error
	GetByID(ctx context.Context, id int64) (*entity.VendorStatement, error)
	// GetByVendorPeriod returns the committed statement occupying the
	// (vendor, period_start, period_end) key, or nil.
	GetByVendorPeriod(ctx context.Context, vendorID int64, periodStart, periodEnd time.Time) (*entity.VendorStatement, error)
}

// LineRepository defines persistence operations for StatementLine
type LineRepository interface {
	Create(ctx context.Context, line *entity.StatementLine) error
	GetByID(ctx context.Context, id int64) (*entity.StatementLine, error)
	ListByStatementID(ctx context.Context, statementID int64) ([]*entity.StatementLine, error)
	UpdateMatchStatus(ctx context.Context, id int64, status string) error
	// SetIgnored marks the one-way ignore gate.
	SetIgnored(ctx context.Context, id int64) error
	SetAssistPending(ctx context.Context, id int64, pending bool) error
}

// MatchResultRepository defines persistence operations for the
// append-only MatchResult audit trail.
type MatchResultRepository interface {
	Create(ctx context.Context, result *entity.MatchResult) error
	// GetCurrentByLineID returns the one non-superseded result, or nil.
	GetCurrentByLineID(ctx context.Context, lineID int64) (*entity.MatchResult, error)
	// SupersedeByLineID marks every current result for the line superseded.
	SupersedeByLineID(ctx context.Context, lineID int64) error
	ListByLineID(ctx context.Context, lineID int64) ([]*entity.MatchResult, error)
}

// InvoiceRepository is the read-only invoice API consumed by candidate
// retrieval. It satisfies matching.InvoiceSource.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	ListByVendorAndDateRange(ctx context.Context, vendorID int64, from, to time.Time, limit int) ([]*entity.Invoice, error)
}

// TransactionManager executes a function within a database transaction.
// Nested calls reuse the enclosing transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
