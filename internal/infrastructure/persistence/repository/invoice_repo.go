package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/restobooks/vendor-recon/internal/application/port"
	"github.com/restobooks/vendor-recon/internal/domain/entity"
	"github.com/restobooks/vendor-recon/internal/infrastructure/persistence/sqlite"
)

// InvoiceRepository implements port.InvoiceRepository over the read-only
// invoice view maintained by the upstream ingestion pipeline.
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{db: db, logger: logger}
}

// GetByID retrieves an invoice by its ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	query := selectInvoice + ` WHERE id = ?`

	invoice, err := scanInvoice(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// ListByVendorAndDateRange returns the vendor's invoices dated inside
// [from, to], nearest to the midpoint first, capped at limit.
func (r *InvoiceRepository) ListByVendorAndDateRange(ctx context.Context, vendorID int64, from, to time.Time, limit int) ([]*entity.Invoice, error) {
	mid := from.Add(to.Sub(from) / 2)
	query := selectInvoice + `
		WHERE vendor_id = ? AND invoice_date >= ? AND invoice_date <= ?
		ORDER BY ABS(julianday(invoice_date) - julianday(?))
		LIMIT ?`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, vendorID, from, to, mid, limit)
	if err != nil {
		r.logger.Error("Failed to list invoices",
			zap.Int64("vendor_id", vendorID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

const selectInvoice = `
	SELECT id, vendor_id, invoice_number, invoice_date, description, total_amount, status
	FROM invoices`

func scanInvoice(row scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var totalAmount string

	err := row.Scan(
		&inv.ID,
		&inv.VendorID,
		&inv.InvoiceNumber,
		&inv.InvoiceDate,
		&inv.Description,
		&totalAmount,
		&inv.Status,
	)
	if err != nil {
		return nil, err
	}

	inv.TotalAmount, err = decimal.NewFromString(totalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid total_amount %q: %w", totalAmount, err)
	}
	return &inv, nil
}
