// Package matching implements the deterministic reconciliation core:
// text normalization, candidate retrieval, similarity scoring, and the
// decision policy that routes a score into auto-match, review, or no-match.
//
// Everything in this package is a pure function of its inputs plus the
// injected Params, so scoring is reproducible and safe to run concurrently
// across lines.
package matching

import "fmt"

// Params holds the reconciliation tuning parameters. Values arrive from
// configuration; the defaults here mirror the shipped config file.
type Params struct {
	// AutoThreshold is the combined score at or above which a match is
	// committed without a human step.
	AutoThreshold float64

	// ReviewThreshold is the lower bound of the flag-for-review band.
	ReviewThreshold float64

	// DateWindowDays bounds candidate retrieval around the line date.
	DateWindowDays int

	// AmountTolerancePct is the relative amount difference at which the
	// amount score reaches zero.
	AmountTolerancePct float64

	// CandidateCap bounds the candidate set per line.
	CandidateCap int

	// TextWeight, AmountWeight, and DateWeight combine the sub-scores.
	TextWeight   float64
	AmountWeight float64
	DateWeight   float64
}

// DefaultParams returns the empirically tuned defaults.
func DefaultParams() Params {
	return Params{
		AutoThreshold:      0.90,
		ReviewThreshold:    0.60,
		DateWindowDays:     45,
		AmountTolerancePct: 0.05,
		CandidateCap:       50,
		TextWeight:         0.5,
		AmountWeight:       0.3,
		DateWeight:         0.2,
	}
}

// Validate ensures threshold values are in range and logically consistent.
func (p Params) Validate() error {
	if p.AutoThreshold <= 0 || p.AutoThreshold > 1 {
		return fmt.Errorf("auto threshold must be in (0, 1], got %.2f", p.AutoThreshold)
	}
	if p.ReviewThreshold < 0 || p.ReviewThreshold > 1 {
		return fmt.Errorf("review threshold must be in [0, 1], got %.2f", p.ReviewThreshold)
	}
	if p.AutoThreshold <= p.ReviewThreshold {
		return fmt.Errorf("auto threshold must be greater than review threshold (auto: %.2f, review: %.2f)",
			p.AutoThreshold, p.ReviewThreshold)
	}
	if p.DateWindowDays <= 0 {
		return fmt.Errorf("date window must be positive, got %d days", p.DateWindowDays)
	}
	if p.AmountTolerancePct <= 0 {
		return fmt.Errorf("amount tolerance must be positive, got %.4f", p.AmountTolerancePct)
	}
	if p.CandidateCap <= 0 {
		return fmt.Errorf("candidate cap must be positive, got %d", p.CandidateCap)
	}
	if sum := p.TextWeight + p.AmountWeight + p.DateWeight; sum <= 0 {
		return fmt.Errorf("score weights must sum to a positive value, got %.2f", sum)
	}
	return nil
}

// weightSum is used to clamp the combined score when weights do not sum
// to exactly one.
func (p Params) weightSum() float64 {
	return p.TextWeight + p.AmountWeight + p.DateWeight
}
