package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the read-only view of an invoice produced by the upstream
// ingestion pipeline. The reconciliation core never writes invoices.
type Invoice struct {
	ID            int64           `json:"id"`
	VendorID      int64           `json:"vendor_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	Description   string          `json:"description,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
}
