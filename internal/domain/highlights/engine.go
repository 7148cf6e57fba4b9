// Package highlights fuses comment-density peaks with transcript highlights
// into scored, non-overlapping clip recommendations.
package highlights

import (
	"sort"

	"github.com/forPelevin/streamclip/internal/types"
)

const (
	// MaxKeptOverlap is how much two kept clips may overlap, in seconds.
	MaxKeptOverlap = 30.0
	DefaultTopN    = 10
	maxKeywords    = 5
)

type Engine struct {
	Preset types.Preset
	TopN   int
}

// Recommend builds candidates, scores them and keeps the best
// non-overlapping ones. Identical inputs give identical output.
func (e Engine) Recommend(peaks []types.DensityWindow, hls []types.SemanticSegment) []types.ClipRecommendation {
	cands := BuildCandidates(peaks, hls)
	recs := make([]types.ClipRecommendation, 0, len(cands))
	for _, c := range cands {
		recs = append(recs, e.Score(c))
	}
	topN := e.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	return Reconcile(recs, MaxKeptOverlap, topN)
}

// Score turns one candidate into a recommendation.
func (e Engine) Score(c types.Candidate) types.ClipRecommendation {
	keywords := CollectKeywords(c)
	duration := c.End - c.Start

	breakdown := map[string]int{
		FactorDensity:  DensityScore(c.Density),
		FactorSemantic: SemanticScore(c.Semantic),
		FactorTemplate: TemplateScore(keywords, e.Preset.SignaturePhrases),
		FactorDuration: DurationScore(duration, e.Preset.ClipDuration),
	}
	return types.ClipRecommendation{
		Start:          c.Start,
		End:            c.End,
		Duration:       duration,
		Title:          Title(e.Preset, keywords, c.Semantic),
		Keywords:       keywords,
		Score:          Total(breakdown),
		ScoreBreakdown: breakdown,
		Reason:         Reason(c, breakdown[FactorTemplate]),
	}
}

// CollectKeywords merges density then semantic keywords, deduplicated,
// at most five.
func CollectKeywords(c types.Candidate) []string {
	var all []string
	if c.Density != nil {
		all = append(all, c.Density.Keywords...)
	}
	if c.Semantic != nil {
		all = append(all, c.Semantic.Keywords...)
	}
	out := []string{}
	seen := make(map[string]bool, len(all))
	for _, k := range all {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// Reconcile ranks by score and greedily keeps a recommendation only if it
// overlaps every kept one by at most maxOverlap seconds. Equal scores keep
// their incoming order.
func Reconcile(recs []types.ClipRecommendation, maxOverlap float64, topN int) []types.ClipRecommendation {
	ranked := make([]types.ClipRecommendation, len(recs))
	copy(ranked, recs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	kept := []types.ClipRecommendation{}
	for _, r := range ranked {
		clash := false
		for _, k := range kept {
			if Overlap(r.Start, r.End, k.Start, k.End) > maxOverlap {
				clash = true
				break
			}
		}
		if clash {
			continue
		}
		kept = append(kept, r)
		if topN > 0 && len(kept) == topN {
			break
		}
	}
	return kept
}

func sortByStart(cs []types.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Start < cs[j].Start })
}
