package aggregate

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	numberRe   = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)*(?:\.[0-9]+)?`)
	bedroomsRe = regexp.MustCompile(`(?i)\b([0-9]{1,2})\s*(?:bhk|bed|bedroom)`)
	tokenRe    = regexp.MustCompile(`[a-z0-9]+`)

	// Unit may trail the number directly ("45L") or stand alone ("45 Lac").
	priceUnitRe = regexp.MustCompile(`(?:\b|[0-9])(crores?|cr|lacs?|lakhs?|l|k)\b`)

	lowerCaser = cases.Lower(language.English)
)

// ParsePrice converts Indian real-estate price text into rupees.
// Handles currency symbols, Indian digit grouping, and the Lac/Crore unit
// suffixes: "₹45,00,000" → 4500000, "45 Lac" → 4500000, "1.2 Cr" → 12000000.
func ParsePrice(s string) (float64, error) {
	cleaned := lowerCaser.String(norm.NFKC.String(s))
	cleaned = strings.NewReplacer("₹", " ", "rs.", " ", "rs", " ", "inr", " ").Replace(cleaned)

	m := numberRe.FindString(cleaned)
	if m == "" {
		return 0, eris.Errorf("aggregate: no numeric price in %q", s)
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "aggregate: parse price %q", s)
	}

	var unit string
	if m := priceUnitRe.FindStringSubmatch(cleaned); len(m) > 1 {
		unit = m[1]
	}
	switch unit {
	case "cr", "crore", "crores":
		val *= 1e7
	case "l", "lac", "lacs", "lakh", "lakhs":
		val *= 1e5
	case "k":
		val *= 1e3
	}

	if val <= 0 {
		return 0, eris.Errorf("aggregate: non-positive price in %q", s)
	}
	return val, nil
}

// ParseArea converts area text into square feet. Square meters, square
// yards, and acres are converted; bare numbers are assumed to be sqft.
func ParseArea(s string) (float64, error) {
	cleaned := lowerCaser.String(norm.NFKC.String(s))

	m := numberRe.FindString(cleaned)
	if m == "" {
		return 0, eris.Errorf("aggregate: no numeric area in %q", s)
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "aggregate: parse area %q", s)
	}

	compact := strings.ReplaceAll(cleaned, ".", "")
	compact = strings.ReplaceAll(compact, " ", "")
	switch {
	case strings.Contains(compact, "acre"):
		val *= 43560
	case strings.Contains(compact, "hectare"):
		val *= 107639
	case strings.Contains(compact, "sqyrd") || strings.Contains(compact, "sqyard") || strings.Contains(compact, "sqyd"):
		val *= 9
	case strings.Contains(compact, "sqm") || strings.Contains(compact, "sqmt") || strings.Contains(compact, "sqmeter"):
		val *= 10.7639
	}

	if val <= 0 {
		return 0, eris.Errorf("aggregate: non-positive area in %q", s)
	}
	return val, nil
}

// ParseBedrooms pulls a bedroom count out of a listing title ("2 BHK ...").
// Returns 0 when the title carries no bedroom count.
func ParseBedrooms(title string) int {
	m := bedroomsRe.FindStringSubmatch(title)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NormalizeLocation canonicalizes a locality string: unicode-normalized,
// lowercased, punctuation stripped, whitespace collapsed.
func NormalizeLocation(s string) string {
	tokens := tokenRe.FindAllString(lowerCaser.String(norm.NFKC.String(s)), -1)
	return strings.Join(tokens, " ")
}

// titleTokens returns the sorted, deduplicated token set of a title. Token
// sets absorb word-order and minor wording variation between re-posts of
// the same unit.
func titleTokens(title string) []string {
	seen := make(map[string]bool)
	for _, tok := range tokenRe.FindAllString(lowerCaser.String(norm.NFKC.String(title)), -1) {
		seen[tok] = true
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
