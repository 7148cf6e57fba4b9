// Package segments splits a transcript at topic change points and scores
// each segment for excitement, keywords, quotes and topic.
package segments

import (
	"sort"
	"strings"

	"github.com/forPelevin/streamclip/internal/domain/lexicon"
	"github.com/forPelevin/streamclip/internal/types"
)

const (
	// GapThreshold in seconds between two entries starts a new segment.
	GapThreshold = 2.0
	// HighlightMinScore is the excitement a segment needs to be a highlight.
	HighlightMinScore = 4
	DefaultTopN       = 10

	segmentKeywords = 5
	maxQuotes       = 10
	maxTextRunes    = 200
	quoteMinRunes   = 10
)

type Analyzer struct {
	lex  lexicon.Lexicon
	topN int
}

func New(lex lexicon.Lexicon, topN int) *Analyzer {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Analyzer{lex: lex, topN: topN}
}

// Analyze segments entries (sorted by start) and returns every segment plus
// the highlights: segments scoring >= HighlightMinScore, best first.
func (a *Analyzer) Analyze(entries []types.TranscriptEntry) types.SegmentResult {
	res := types.SegmentResult{
		TotalEntries: len(entries),
		Segments:     []types.SemanticSegment{},
		Highlights:   []types.SemanticSegment{},
	}
	if len(entries) == 0 {
		res.ChangePoints = []int{}
		return res
	}
	res.TotalDuration = entries[len(entries)-1].End

	res.ChangePoints = a.ChangePoints(entries)
	for _, span := range Spans(res.ChangePoints, len(entries)) {
		res.Segments = append(res.Segments, a.segment(entries[span[0]:span[1]]))
	}

	for _, s := range res.Segments {
		if s.ExcitementScore >= HighlightMinScore {
			res.Highlights = append(res.Highlights, s)
		}
	}
	sort.SliceStable(res.Highlights, func(i, j int) bool {
		return res.Highlights[i].ExcitementScore > res.Highlights[j].ExcitementScore
	})
	if len(res.Highlights) > a.topN {
		res.Highlights = res.Highlights[:a.topN]
	}
	return res
}

// ChangePoints always contains 0. Index i >= 1 is a change point when its
// lower-cased text holds a transition marker or when the silence before it
// exceeds GapThreshold.
func (a *Analyzer) ChangePoints(entries []types.TranscriptEntry) []int {
	if len(entries) == 0 {
		return []int{}
	}
	points := []int{0}
	for i := 1; i < len(entries); i++ {
		text := strings.ToLower(entries[i].Text)
		if containsAny(text, a.lex.Transitions) || entries[i].Start-entries[i-1].End > GapThreshold {
			points = append(points, i)
		}
	}
	return points
}

// Spans turns change points into half-open index ranges covering [0, n).
func Spans(points []int, n int) [][2]int {
	uniq := make([]int, 0, len(points))
	seen := make(map[int]bool, len(points))
	for _, p := range points {
		if p < 0 || p >= n || seen[p] {
			continue
		}
		seen[p] = true
		uniq = append(uniq, p)
	}
	sort.Ints(uniq)
	if len(uniq) == 0 || uniq[0] != 0 {
		uniq = append([]int{0}, uniq...)
	}

	out := make([][2]int, 0, len(uniq))
	for k, start := range uniq {
		end := n
		if k+1 < len(uniq) {
			end = uniq[k+1]
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func (a *Analyzer) segment(entries []types.TranscriptEntry) types.SemanticSegment {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	joined := strings.Join(texts, " ")

	ex := lexicon.Extractor{StopWords: a.lex.TranscriptStopWords, SkipNumeric: true}
	return types.SemanticSegment{
		Start:           entries[0].Start,
		End:             entries[len(entries)-1].End,
		Text:            clip(joined, maxTextRunes),
		Topic:           a.Topic(joined),
		ExcitementScore: a.Excitement(joined),
		Keywords:        ex.Keywords([]string{joined}, segmentKeywords),
		Quotes:          a.Quotes(texts),
	}
}

// EmotionHits counts emotion words present in text across all categories.
func (a *Analyzer) EmotionHits(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, cat := range a.lex.Emotions {
		for _, w := range cat.Words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
	}
	return hits
}

// Excitement maps emotion hits onto 1..5.
func (a *Analyzer) Excitement(text string) int {
	return ScoreHits(a.EmotionHits(text))
}

func ScoreHits(hits int) int {
	switch {
	case hits >= 5:
		return 5
	case hits >= 3:
		return 4
	case hits >= 2:
		return 3
	case hits >= 1:
		return 2
	default:
		return 1
	}
}

// Quotes picks lines with strong emotion words, long exclamations, or
// questions with an interrogative. Deduplicated, at most maxQuotes.
func (a *Analyzer) Quotes(lines []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, text := range lines {
		var keep bool
		switch {
		case containsAny(text, a.lex.StrongEmotion):
			keep = true
		case strings.ContainsAny(text, "！!"):
			keep = len([]rune(text)) > quoteMinRunes
		case strings.ContainsAny(text, "？?"):
			keep = containsAny(text, a.lex.Interrogatives)
		}
		if !keep || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
		if len(out) == maxQuotes {
			break
		}
	}
	return out
}

// Topic returns the label with the most keyword hits; the earliest label
// wins ties. Falls back to the lexicon's default topic.
func (a *Analyzer) Topic(text string) string {
	lower := strings.ToLower(text)
	best, bestScore := a.lex.DefaultTopic, 0
	for _, t := range a.lex.Topics {
		score := 0
		for _, w := range t.Words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = t.Name, score
		}
	}
	return best
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
