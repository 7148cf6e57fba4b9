package highlights

import (
	"strings"

	"github.com/forPelevin/streamclip/internal/types"
)

// Factor names used in ClipRecommendation.ScoreBreakdown.
const (
	FactorDensity  = "danmaku"
	FactorSemantic = "semantic"
	FactorTemplate = "template"
	FactorDuration = "duration"
)

// Weights of the total score. They sum to 1.
const (
	WeightDensity  = 0.30
	WeightSemantic = 0.40
	WeightTemplate = 0.20
	WeightDuration = 0.10
)

// DensityScore is a step function of the window's comment count.
func DensityScore(w *types.DensityWindow) int {
	if w == nil {
		return 0
	}
	switch c := w.Count; {
	case c >= 150:
		return 100
	case c >= 100:
		return 80
	case c >= 80:
		return 60
	case c >= 50:
		return 40
	default:
		return 20
	}
}

// SemanticScore is excitement*20, plus 10 when the segment has a quote.
func SemanticScore(s *types.SemanticSegment) int {
	if s == nil {
		return 0
	}
	score := s.ExcitementScore * 20
	if len(s.Quotes) > 0 {
		score += 10
	}
	return clampScore(score)
}

// TemplateScore starts at 50 and adds 10 per signature phrase found,
// case-insensitively, in the candidate's keywords.
func TemplateScore(keywords, phrases []string) int {
	score := 50
	if len(phrases) == 0 {
		return score
	}
	text := strings.ToLower(strings.Join(keywords, " "))
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		lp := strings.ToLower(strings.TrimSpace(p))
		if lp == "" || seen[lp] {
			continue
		}
		seen[lp] = true
		if strings.Contains(text, lp) {
			score += 10
		}
	}
	return clampScore(score)
}

// DurationScore rates how well a clip length fits. Without bounds, 60-180s
// is ideal, 30-60s and 180-300s are acceptable, anything else is poor. With
// bounds, the score falls 2 points per second under Min and 0.5 points per
// second over Max.
func DurationScore(d float64, b *types.DurationBounds) int {
	if b == nil {
		switch {
		case d >= 60 && d <= 180:
			return 100
		case (d >= 30 && d < 60) || (d > 180 && d <= 300):
			return 70
		default:
			return 40
		}
	}
	switch {
	case d >= b.Min && d <= b.Max:
		return 100
	case d < b.Min:
		return clampScore(int(100 - (b.Min-d)*2))
	default:
		return clampScore(int(100 - (d-b.Max)*0.5))
	}
}

// Total is the weighted sum of the breakdown, truncated.
func Total(breakdown map[string]int) int {
	// Explicit conversions round each product on its own (no FMA).
	sum := float64(float64(breakdown[FactorDensity])*WeightDensity) +
		float64(float64(breakdown[FactorSemantic])*WeightSemantic) +
		float64(float64(breakdown[FactorTemplate])*WeightTemplate) +
		float64(float64(breakdown[FactorDuration])*WeightDuration)
	return int(sum)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
