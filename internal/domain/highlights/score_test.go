package highlights

import (
	"testing"

	"github.com/forPelevin/streamclip/internal/types"
)

func TestDensityScore_Table(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{200, 100}, {150, 100}, {149, 80}, {100, 80}, {80, 60}, {50, 40}, {49, 20}, {0, 20},
	}
	for _, tt := range tests {
		if got := DensityScore(&types.DensityWindow{Count: tt.count}); got != tt.want {
			t.Fatalf("DensityScore(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
	if got := DensityScore(nil); got != 0 {
		t.Fatalf("DensityScore(nil) = %d, want 0", got)
	}
}

func TestSemanticScore(t *testing.T) {
	tests := []struct {
		name string
		seg  *types.SemanticSegment
		want int
	}{
		{"missing", nil, 0},
		{"plain", &types.SemanticSegment{ExcitementScore: 3}, 60},
		{"quote bonus", &types.SemanticSegment{ExcitementScore: 4, Quotes: []string{"q"}}, 90},
		{"capped", &types.SemanticSegment{ExcitementScore: 5, Quotes: []string{"q"}}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SemanticScore(tt.seg); got != tt.want {
				t.Fatalf("SemanticScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTemplateScore(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		phrases  []string
		want     int
	}{
		{"no preset", []string{"x"}, nil, 50},
		{"one hit case-insensitive", []string{"GG 了"}, []string{"gg"}, 60},
		{"distinct only", []string{"gg"}, []string{"gg", "GG"}, 60},
		{"capped", []string{"a b c d e f"}, []string{"a", "b", "c", "d", "e", "f"}, 100},
		{"miss", []string{"abc"}, []string{"xyz"}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TemplateScore(tt.keywords, tt.phrases); got != tt.want {
				t.Fatalf("TemplateScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDurationScore(t *testing.T) {
	bounds := &types.DurationBounds{Min: 60, Max: 180}
	tests := []struct {
		name string
		d    float64
		b    *types.DurationBounds
		want int
	}{
		{"default ideal", 120, nil, 100},
		{"default short ok", 30, nil, 70},
		{"default long ok", 300, nil, 70},
		{"default poor", 20, nil, 40},
		{"default too long", 301, nil, 40},
		{"bounded inside", 90, bounds, 100},
		{"bounded short", 50, bounds, 80},
		{"bounded long", 200, bounds, 90},
		{"bounded floor", 0, bounds, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationScore(tt.d, tt.b); got != tt.want {
				t.Fatalf("DurationScore(%v) = %d, want %d", tt.d, got, tt.want)
			}
		})
	}
}

func TestTotal_WeightedAndTruncated(t *testing.T) {
	got := Total(map[string]int{
		FactorDensity:  80,
		FactorSemantic: 90,
		FactorTemplate: 50,
		FactorDuration: 70,
	})
	// 24 + 36 + 10 + 7
	if got != 77 {
		t.Fatalf("Total = %d, want 77", got)
	}
	if got := Total(map[string]int{FactorDensity: 20, FactorTemplate: 50, FactorDuration: 40}); got != 20 {
		t.Fatalf("Total = %d, want 20", got)
	}
}
