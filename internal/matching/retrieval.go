package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/restobooks/vendor-recon/internal/domain/entity"
)

// InvoiceSource is the vendor-scoped invoice read API the retriever
// consumes. Implementations return invoices ordered by proximity to the
// midpoint of the range, capped at limit.
type InvoiceSource interface {
	ListByVendorAndDateRange(ctx context.Context, vendorID int64, from, to time.Time, limit int) ([]*entity.Invoice, error)
}

// Retriever selects a bounded set of plausible invoice matches per line.
type Retriever struct {
	src    InvoiceSource
	params Params
}

// NewRetriever creates a retriever over the given invoice source.
func NewRetriever(src InvoiceSource, params Params) *Retriever {
	return &Retriever{src: src, params: params}
}

// Retrieve returns candidate invoices for the line: same vendor, dated
// within the configured window, excluding invoices already claimed by
// another line in this pass.
func (r *Retriever) Retrieve(ctx context.Context, vendorID int64, line *entity.StatementLine, claimed map[int64]bool) ([]*entity.Invoice, error) {
	window := time.Duration(r.params.DateWindowDays) * 24 * time.Hour
	from := line.LineDate.Add(-window)
	to := line.LineDate.Add(window)

	invoices, err := r.src.ListByVendorAndDateRange(ctx, vendorID, from, to, r.params.CandidateCap)
	if err != nil {
		return nil, fmt.Errorf("list candidate invoices: %w", err)
	}

	if len(claimed) == 0 {
		return invoices, nil
	}

	out := invoices[:0]
	for _, inv := range invoices {
		if claimed[inv.ID] {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}
