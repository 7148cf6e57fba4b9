package highlights

import (
	"testing"

	"github.com/forPelevin/streamclip/internal/types"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 float64
		want           float64
	}{
		{"disjoint", 0, 10, 20, 30, 0},
		{"touching", 0, 10, 10, 20, 0},
		{"partial", 0, 30, 15, 45, 15},
		{"contained", 0, 100, 20, 30, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Fatalf("Overlap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildCandidates_MergesAndCapsSpan(t *testing.T) {
	peaks := []types.DensityWindow{{WindowStart: 60, WindowEnd: 90, Count: 120}}
	hls := []types.SemanticSegment{{Start: 70, End: 400, ExcitementScore: 5}}

	cands := BuildCandidates(peaks, hls)
	var merged *types.Candidate
	for i := range cands {
		if cands[i].Density != nil && cands[i].Semantic != nil {
			merged = &cands[i]
		}
	}
	if merged == nil {
		t.Fatalf("expected a merged candidate, got %+v", cands)
	}
	if merged.Start != 60 || merged.End != 240 {
		t.Fatalf("merged = [%v,%v], want [60,240]", merged.Start, merged.End)
	}
	// Fewer than five merged: nothing else to add since both sources were used.
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
}

func TestBuildCandidates_SmallOverlapIsNotMerged(t *testing.T) {
	peaks := []types.DensityWindow{{WindowStart: 0, WindowEnd: 30, Count: 60}}
	hls := []types.SemanticSegment{{Start: 20, End: 80, ExcitementScore: 4}}

	cands := BuildCandidates(peaks, hls)
	if len(cands) != 2 {
		t.Fatalf("expected density-only and semantic-only candidates, got %+v", cands)
	}
	if cands[0].Density == nil || cands[0].Semantic != nil {
		t.Fatalf("first candidate should be density-only: %+v", cands[0])
	}
	if cands[1].Semantic == nil || cands[1].Density != nil {
		t.Fatalf("second candidate should be semantic-only: %+v", cands[1])
	}
}

func TestBuildCandidates_FallbackLimitedToFivePerSignal(t *testing.T) {
	var peaks []types.DensityWindow
	for i := 0; i < 8; i++ {
		s := float64(i) * 1000
		peaks = append(peaks, types.DensityWindow{WindowStart: s, WindowEnd: s + 30, Count: 100 - i})
	}
	cands := BuildCandidates(peaks, nil)
	if len(cands) != 5 {
		t.Fatalf("expected 5 density-only candidates, got %d", len(cands))
	}
}

func TestBuildCandidates_NoFallbackWhenPoolIsFull(t *testing.T) {
	var peaks []types.DensityWindow
	var hls []types.SemanticSegment
	for i := 0; i < 5; i++ {
		s := float64(i) * 500
		peaks = append(peaks, types.DensityWindow{WindowStart: s, WindowEnd: s + 30})
		hls = append(hls, types.SemanticSegment{Start: s + 5, End: s + 60})
	}
	// An unmatched peak that would only appear through the fallback.
	peaks = append(peaks, types.DensityWindow{WindowStart: 9000, WindowEnd: 9030})

	cands := BuildCandidates(peaks, hls)
	if len(cands) != 5 {
		t.Fatalf("expected only the 5 merged candidates, got %d", len(cands))
	}
	for _, c := range cands {
		if c.Start == 9000 {
			t.Fatalf("fallback should not run when 5 candidates merged")
		}
	}
}

func TestBuildCandidates_DedupesWholeSecondRanges(t *testing.T) {
	peaks := []types.DensityWindow{{WindowStart: 0, WindowEnd: 30}}
	hls := []types.SemanticSegment{{Start: 0.4, End: 30.7}}
	cands := BuildCandidates(peaks, hls)
	// Overlap is 29.6s so they merge into [0,30.7]; no single-signal duplicates remain.
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %+v", cands)
	}

	dup := dedupe([]types.Candidate{{Start: 10.2, End: 40.9}, {Start: 10.8, End: 40.1}, {Start: 11, End: 40}})
	if len(dup) != 2 {
		t.Fatalf("expected integer-truncated dedupe to keep 2, got %d", len(dup))
	}
}

func TestBuildCandidates_Empty(t *testing.T) {
	if got := BuildCandidates(nil, nil); len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", got)
	}
}
