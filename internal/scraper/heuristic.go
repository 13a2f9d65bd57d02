package scraper

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Plausibility window for a fuel price in EUR per liter. Values at the
// bounds are rejected.
const (
	priceFloor = 1.5
	priceCeil  = 2.5
)

// plausible reports whether p sits strictly inside the accepted window.
func plausible(p float64) bool {
	return p > priceFloor && p < priceCeil
}

// Strategy pulls a plausible price out of a rendered HTML snapshot.
// Strategies are tried in order and must be independently testable against
// fixture snapshots.
type Strategy interface {
	Name() string
	Extract(html string) (float64, bool)
}

// defaultStrategies returns the extraction pipeline in priority order.
func defaultStrategies() []Strategy {
	return []Strategy{
		TextScanStrategy{},
		CurrencySymbolStrategy{},
	}
}

// pricePattern matches currency-shaped substrings: one digit, a decimal
// point, two or three fraction digits, in the 1.x range the site lists
// fuel prices in.
var pricePattern = regexp.MustCompile(`1\.[0-9]{2,3}`)

// TextScanStrategy scans the raw page text for price-shaped substrings and
// picks the highest plausible one.
type TextScanStrategy struct{}

// Name identifies the strategy in logs.
func (TextScanStrategy) Name() string { return "text-scan" }

// Extract collects the set of distinct price-shaped matches and delegates
// selection to pickPlausible.
func (TextScanStrategy) Extract(snapshot string) (float64, bool) {
	matches := pricePattern.FindAllString(snapshot, -1)
	if len(matches) == 0 {
		return 0, false
	}
	seen := make(map[string]struct{}, len(matches))
	candidates := make([]float64, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		p, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, p)
	}
	return pickPlausible(candidates)
}

// pickPlausible sorts the candidates ascending and scans from the highest
// value downward, accepting the first one inside the plausibility window.
// Pricier grades tend to carry the larger numbers on a page listing
// several grades, so the highest plausible value stands in for the target
// grade. The tie-break is deliberate; do not "improve" it.
func pickPlausible(candidates []float64) (float64, bool) {
	sort.Float64s(candidates)
	for i := len(candidates) - 1; i >= 0; i-- {
		if plausible(candidates[i]) {
			return candidates[i], true
		}
	}
	return 0, false
}

// defaultMaxSymbolElements caps how many euro-bearing elements the DOM
// scan inspects.
const defaultMaxSymbolElements = 10

// CurrencySymbolStrategy inspects DOM elements whose direct text carries a
// euro sign and parses the token immediately preceding it. It runs only
// when the text scan came up empty.
type CurrencySymbolStrategy struct {
	// MaxElements overrides the inspection cap; zero means the default.
	MaxElements int
}

// Name identifies the strategy in logs.
func (CurrencySymbolStrategy) Name() string { return "currency-symbol" }

// Extract walks elements in document order and accepts the first plausible
// price found next to a euro sign.
func (s CurrencySymbolStrategy) Extract(snapshot string) (float64, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return 0, false
	}
	limit := s.MaxElements
	if limit <= 0 {
		limit = defaultMaxSymbolElements
	}

	var (
		price     float64
		found     bool
		inspected int
	)
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := ownText(sel)
		if !strings.Contains(text, "€") {
			return true
		}
		inspected++
		if p, ok := priceBeforeSymbol(text); ok {
			price, found = p, true
			return false
		}
		return inspected < limit
	})
	return price, found
}

// ownText returns the text directly inside an element, excluding child
// elements, mirroring an XPath contains(text(), ...) match.
func ownText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// priceBeforeSymbol parses the token immediately preceding the first euro
// sign, e.g. 1.895 out of "SP98 1.895 €/L".
func priceBeforeSymbol(text string) (float64, bool) {
	before, _, ok := strings.Cut(text, "€")
	if !ok {
		return 0, false
	}
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return 0, false
	}
	p, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil || !plausible(p) {
		return 0, false
	}
	return p, true
}

// knownStationMarker is a brand substring that shows up for the tracked
// stations even when the site truncates their display names.
const knownStationMarker = "RELAIS"

// stationPresent reports whether the target station can be matched in the
// snapshot: full name first, then the shortened form before the first '|',
// then the hard-coded marker.
func stationPresent(snapshot, station string) bool {
	if station == "" {
		return false
	}
	if strings.Contains(snapshot, station) {
		return true
	}
	short := strings.TrimSpace(strings.SplitN(station, "|", 2)[0])
	if short != "" && strings.Contains(snapshot, short) {
		return true
	}
	return strings.Contains(snapshot, knownStationMarker)
}
