package matching

import (
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"github.com/restobooks/vendor-recon/internal/domain/entity"
)

// centTolerance is the absolute difference treated as an exact amount match.
var centTolerance = decimal.RequireFromString("0.01")

// Candidate is one scored invoice for a statement line. Candidates are
// ephemeral: computed per scoring pass, never persisted.
type Candidate struct {
	Invoice        *entity.Invoice
	TextScore      float64
	AmountScore    float64
	DateScore      float64
	CombinedScore  float64
	ExactInvoiceNo bool
}

// Scorer combines text, amount, and date signals into one confidence
// score per candidate.
type Scorer struct {
	params Params
	norm   *Normalizer
}

// NewScorer creates a scorer with the given parameters.
func NewScorer(params Params, norm *Normalizer) *Scorer {
	return &Scorer{params: params, norm: norm}
}

// ScoreCandidates scores every candidate invoice against the line and
// returns the full ranked list so a reviewer can see alternatives.
// Ranking: exact invoice-number match first, then combined score, then
// most recent invoice date.
func (s *Scorer) ScoreCandidates(line *entity.StatementLine, invoices []*entity.Invoice) []Candidate {
	results := make([]Candidate, 0, len(invoices))
	lineTokens := s.norm.Tokens(line.Description)

	for _, inv := range invoices {
		c := Candidate{Invoice: inv}
		c.ExactInvoiceNo = InvoiceNumberMatches(line, inv)

		if c.ExactInvoiceNo {
			// A statement that cites the invoice number is a stronger
			// text signal than any description overlap.
			c.TextScore = 1.0
		} else {
			c.TextScore = s.textScore(lineTokens, s.norm.Tokens(describeInvoice(inv)))
		}
		c.AmountScore = s.amountScore(line.Amount, inv.TotalAmount)
		c.DateScore = s.dateScore(line.LineDate, inv.InvoiceDate)
		c.CombinedScore = s.combine(c.TextScore, c.AmountScore, c.DateScore)

		results = append(results, c)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ExactInvoiceNo != results[j].ExactInvoiceNo {
			return results[i].ExactInvoiceNo
		}
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].Invoice.InvoiceDate.After(results[j].Invoice.InvoiceDate)
	})

	return results
}

// InvoiceNumberMatches reports whether the line cites the invoice's
// number, exactly or within edit distance one.
func InvoiceNumberMatches(line *entity.StatementLine, inv *entity.Invoice) bool {
	if inv.InvoiceNumber == "" {
		return false
	}
	invNo := strings.ToLower(strings.TrimSpace(inv.InvoiceNumber))
	for _, ref := range []string{line.InvoiceNumber, line.ReferenceNumber} {
		ref = strings.ToLower(strings.TrimSpace(ref))
		if ref == "" {
			continue
		}
		if ref == invNo || levenshtein.ComputeDistance(ref, invNo) <= 1 {
			return true
		}
	}
	return false
}

// textScore computes token and bigram-shingle overlap (Dice coefficient)
// between the normalized descriptions.
func (s *Scorer) textScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sa := shingleSet(a)
	sb := shingleSet(b)

	var common int
	for sh := range sa {
		if _, ok := sb[sh]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(sa)+len(sb))
}

// shingleSet builds the set of unigrams plus adjacent bigrams.
func shingleSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, 2*len(tokens))
	for i, tok := range tokens {
		set[tok] = struct{}{}
		if i > 0 {
			set[tokens[i-1]+" "+tok] = struct{}{}
		}
	}
	return set
}

// amountScore is 1.0 within a cent of exact match, decaying linearly to
// zero at the configured relative tolerance.
func (s *Scorer) amountScore(lineAmount, invoiceAmount decimal.Decimal) float64 {
	diff := lineAmount.Sub(invoiceAmount).Abs()
	if diff.LessThanOrEqual(centTolerance) {
		return 1.0
	}

	base := lineAmount.Abs()
	if base.IsZero() {
		return 0
	}
	relDiff := diff.Div(base).InexactFloat64()
	if relDiff >= s.params.AmountTolerancePct {
		return 0
	}
	return 1.0 - relDiff/s.params.AmountTolerancePct
}

// dateScore is 1.0 at zero-day offset, decaying linearly to zero at the
// edge of the candidate window.
func (s *Scorer) dateScore(lineDate, invoiceDate time.Time) float64 {
	offset := lineDate.Sub(invoiceDate)
	if offset < 0 {
		offset = -offset
	}
	window := time.Duration(s.params.DateWindowDays) * 24 * time.Hour
	if offset >= window {
		return 0
	}
	return 1.0 - float64(offset)/float64(window)
}

// combine applies the configured weights and clamps to [0, 1].
func (s *Scorer) combine(text, amount, date float64) float64 {
	combined := text*s.params.TextWeight + amount*s.params.AmountWeight + date*s.params.DateWeight
	if sum := s.params.weightSum(); sum > 1 {
		combined /= sum
	}
	if combined < 0 {
		return 0
	}
	if combined > 1 {
		return 1
	}
	return combined
}

// describeInvoice yields the comparable text for an invoice. The read
// model carries line-item descriptions pre-joined by the upstream
// ingestion pipeline; the invoice number is the fallback.
func describeInvoice(inv *entity.Invoice) string {
	if inv.Description != "" {
		return inv.Description
	}
	return inv.InvoiceNumber
}
