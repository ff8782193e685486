package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// VendorStatement is a vendor-supplied periodic summary of billed line
// items for a venue. At most one committed statement exists per
// (vendor_id, period_start, period_end).
type VendorStatement struct {
	ID              int64           `json:"id"`
	UID             string          `json:"uid"`
	VendorID        int64           `json:"vendor_id"`
	VenueID         int64           `json:"venue_id"`
	StatementNumber string          `json:"statement_number,omitempty"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	DeclaredTotal   decimal.Decimal `json:"declared_total"`
	ImportedBy      string          `json:"imported_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// StatementLine is one charge entry within a statement. Created once at
// import; mutated only by match, ignore, and manual-reassign operations.
type StatementLine struct {
	ID              int64           `json:"id"`
	StatementID     int64           `json:"statement_id"`
	LineNumber      int             `json:"line_number"`
	LineDate        time.Time       `json:"line_date"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	IsIgnored       bool            `json:"is_ignored"`
	AssistPending   bool            `json:"assist_pending"`
	MatchStatus     string          `json:"match_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
