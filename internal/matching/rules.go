package matching

// Normalization rule tables. These are data, not code: reviewed, versioned,
// and tunable without touching the normalization pipeline. Order matters
// for typo corrections, which are applied first match wins per token.

// RulesVersion identifies the rule tables for audit rationale.
const RulesVersion = "v1"

// stopWords are generic category and nationality words that carry no
// discriminative signal between products of the same vendor.
var stopWords = []string{
	"whiskey",
	"whisky",
	"bourbon",
	"scotch",
	"vodka",
	"gin",
	"rum",
	"tequila",
	"mezcal",
	"brandy",
	"wine",
	"beer",
	"cider",
	"japanese",
	"irish",
	"scottish",
	"french",
	"italian",
	"spanish",
	"mexican",
	"american",
	"imported",
	"premium",
}

// TypoRule rewrites a known-bad token to its corrected form.
type TypoRule struct {
	From string
	To   string
}

// typoCorrections is the ordered list of known supplier-catalog typos.
var typoCorrections = []TypoRule{
	{From: "liqueu", To: "liqueur"},
	{From: "liquer", To: "liqueur"},
	{From: "tequilla", To: "tequila"},
	{From: "proseco", To: "prosecco"},
	{From: "sauvingon", To: "sauvignon"},
	{From: "chardonay", To: "chardonnay"},
}

// stopWordSet is derived once from the table above.
var stopWordSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[w] = struct{}{}
	}
	return set
}()
