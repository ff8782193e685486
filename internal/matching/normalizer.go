package matching

import (
	"regexp"
	"strings"
)

// proofMarkerRe matches proof/ABV tokens such as "80'", "43°", or "40.5°"
// that vendor catalogs append to spirit descriptions.
var proofMarkerRe = regexp.MustCompile(`\b\d+(\.\d+)?\s*[°'′]`)

// punctRe matches punctuation and separator characters.
var punctRe = regexp.MustCompile(`[^\pL\pN\s]+`)

// Normalizer canonicalizes free-text descriptions before comparison.
// The same input always yields the same output.
type Normalizer struct{}

// NewNormalizer returns a normalizer backed by the versioned rule tables.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize applies the canonicalization pipeline: lowercase, strip
// proof/ABV markers, strip punctuation, drop stop words, collapse
// whitespace, then apply the ordered typo corrections.
func (n *Normalizer) Normalize(s string) string {
	s = strings.ToLower(s)
	s = proofMarkerRe.ReplaceAllString(s, " ")
	s = punctRe.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	out := fields[:0]
	for _, tok := range fields {
		if _, stop := stopWordSet[tok]; stop {
			continue
		}
		tok = correctToken(tok)
		// A correction may rewrite into a stop word; the filter applies
		// to the corrected form too, so misspelled and correctly spelled
		// variants normalize identically.
		if _, stop := stopWordSet[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// Tokens returns the normalized token list for similarity comparison.
func (n *Normalizer) Tokens(s string) []string {
	norm := n.Normalize(s)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, " ")
}

// correctToken applies the first matching typo rule.
func correctToken(tok string) string {
	for _, rule := range typoCorrections {
		if tok == rule.From {
			return rule.To
		}
	}
	return tok
}
