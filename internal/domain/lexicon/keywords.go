package lexicon

import (
	"sort"
	"unicode"
)

// Extractor counts character n-grams of length 2..4. There is no word
// segmentation: the source text has no whitespace word boundaries.
type Extractor struct {
	StopWords []string
	// SkipNumeric drops n-grams made only of digits.
	SkipNumeric bool
}

// Keywords returns the topN most frequent n-grams across texts. Ties keep
// first-seen order.
func (e Extractor) Keywords(texts []string, topN int) []string {
	if topN <= 0 {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		r := []rune(text)
		for i := 0; i < len(r)-1; i++ {
			for n := 2; n <= 4 && i+n <= len(r); n++ {
				g := string(r[i : i+n])
				if e.SkipNumeric && allDigits(g) {
					continue
				}
				if _, ok := counts[g]; !ok {
					order = append(order, g)
				}
				counts[g]++
			}
		}
	}
	for _, sw := range e.StopWords {
		delete(counts, sw)
	}

	ranked := make([]string, 0, len(counts))
	for _, g := range order {
		if _, ok := counts[g]; ok {
			ranked = append(ranked, g)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
