package highlights

import "github.com/forPelevin/streamclip/internal/types"

// Candidate generation policy. Scoring weights were tuned against exactly
// this shape, so these are constants rather than options.
const (
	// MinMergeOverlap is the overlap in seconds a peak and a highlight need
	// to be merged into one candidate.
	MinMergeOverlap = 10.0
	// MaxMergedSpan caps a merged candidate; the end is truncated.
	MaxMergedSpan = 180.0
	// MinCandidatePool: below this many merged candidates, single-signal
	// candidates are added.
	MinCandidatePool = 5
	// fallbackPerSignal is how many peaks and highlights the fallback reads.
	fallbackPerSignal = 5
)

// Overlap is the length of the intersection of [s1,e1] and [s2,e2], >= 0.
func Overlap(s1, e1, s2, e2 float64) float64 {
	o := min(e1, e2) - max(s1, s2)
	if o < 0 {
		return 0
	}
	return o
}

// BuildCandidates pairs every peak with every highlight that overlaps it by
// more than MinMergeOverlap. When fewer than MinCandidatePool pairs result,
// the first few peaks and highlights not already used are added on their
// own. Candidates with the same whole-second range are dropped after the
// first, and the result is ordered by start.
func BuildCandidates(peaks []types.DensityWindow, hls []types.SemanticSegment) []types.Candidate {
	var merged []types.Candidate
	usedPeak := make([]bool, len(peaks))
	usedHL := make([]bool, len(hls))

	for i := range peaks {
		p := &peaks[i]
		for j := range hls {
			h := &hls[j]
			ov := Overlap(p.WindowStart, p.WindowEnd, h.Start, h.End)
			if ov <= MinMergeOverlap {
				continue
			}
			start := min(p.WindowStart, h.Start)
			end := max(p.WindowEnd, h.End)
			if end-start > MaxMergedSpan {
				end = start + MaxMergedSpan
			}
			merged = append(merged, types.Candidate{Start: start, End: end, Overlap: ov, Density: p, Semantic: h})
			usedPeak[i], usedHL[j] = true, true
		}
	}

	if len(merged) < MinCandidatePool {
		for i := 0; i < len(peaks) && i < fallbackPerSignal; i++ {
			if usedPeak[i] {
				continue
			}
			p := &peaks[i]
			merged = append(merged, types.Candidate{Start: p.WindowStart, End: p.WindowEnd, Density: p})
		}
		for j := 0; j < len(hls) && j < fallbackPerSignal; j++ {
			if usedHL[j] {
				continue
			}
			h := &hls[j]
			merged = append(merged, types.Candidate{Start: h.Start, End: h.End, Semantic: h})
		}
	}

	out := dedupe(merged)
	sortByStart(out)
	return out
}

type rangeKey struct{ start, end int }

func dedupe(cs []types.Candidate) []types.Candidate {
	seen := make(map[rangeKey]bool, len(cs))
	out := make([]types.Candidate, 0, len(cs))
	for _, c := range cs {
		k := rangeKey{int(c.Start), int(c.End)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
