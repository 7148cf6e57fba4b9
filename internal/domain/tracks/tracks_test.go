package tracks

import (
	"math/rand/v2"
	"testing"

	"github.com/forPelevin/streamclip/internal/types"
)

func scroll(ts float64, text string) types.TimedComment {
	return types.TimedComment{Timestamp: ts, Text: text, DisplayMode: types.ModeScroll}
}

func TestAllocate_FirstFit(t *testing.T) {
	t.Parallel()

	cs := []types.TimedComment{
		scroll(0, "a"),
		scroll(1, "b"),
		scroll(8, "c"), // lane 0 frees exactly at 8
		scroll(8.5, "d"),
	}
	res := Allocate(cs, Config{Lanes: 3})

	want := []int{0, 1, 0, 2}
	for i, p := range res.Placements {
		if p.Lane != want[i] {
			t.Fatalf("placement %d (%s): lane %d, want %d", i, p.Comment.Text, p.Lane, want[i])
		}
		if p.Overflow {
			t.Fatalf("placement %d should not overflow", i)
		}
	}
	if res.Overflowed != 0 {
		t.Fatalf("overflowed = %d", res.Overflowed)
	}
}

func TestAllocate_SortsByTimestampStable(t *testing.T) {
	t.Parallel()

	cs := []types.TimedComment{scroll(5, "late"), scroll(1, "x"), scroll(1, "y")}
	res := Allocate(cs, Config{})
	got := []string{res.Placements[0].Comment.Text, res.Placements[1].Comment.Text, res.Placements[2].Comment.Text}
	if got[0] != "x" || got[1] != "y" || got[2] != "late" {
		t.Fatalf("order = %v", got)
	}
	if cs[0].Text != "late" {
		t.Fatalf("input was mutated")
	}
}

func TestAllocate_AnchoredBypassLanes(t *testing.T) {
	t.Parallel()

	cs := []types.TimedComment{
		{Timestamp: 0, Text: "top", DisplayMode: types.ModeTop},
		{Timestamp: 0, Text: "bottom", DisplayMode: types.ModeBottom},
		{Timestamp: 0, Text: "rev", DisplayMode: types.ModeReverse},
		scroll(0, "s"),
	}
	res := Allocate(cs, Config{Lanes: 2})
	for _, p := range res.Placements[:2] {
		if !p.Anchored || p.Lane != -1 {
			t.Fatalf("%s should be anchored: %+v", p.Comment.Text, p)
		}
	}
	if res.Placements[2].Lane != 0 || res.Placements[3].Lane != 1 {
		t.Fatalf("scrolling comments should take lanes 0 and 1: %+v", res.Placements[2:])
	}
	if res.Overflowed != 0 {
		t.Fatalf("anchored comments must not consume lanes")
	}
}

func TestAllocate_NoCollisionsWithoutOverflow(t *testing.T) {
	t.Parallel()

	var cs []types.TimedComment
	for i := 0; i < 500; i++ {
		cs = append(cs, scroll(float64(i)*0.3, "x"))
	}
	cfg := Config{Lanes: 15, Display: 8, Rand: rand.New(rand.NewPCG(1, 2))}
	res := Allocate(cs, cfg)

	lastEnd := map[int]float64{}
	for _, p := range res.Placements {
		if p.Overflow {
			lastEnd[p.Lane] = p.Comment.Timestamp + cfg.Display
			continue
		}
		if end, ok := lastEnd[p.Lane]; ok && end > p.Comment.Timestamp {
			t.Fatalf("lane %d collides at %v (busy until %v)", p.Lane, p.Comment.Timestamp, end)
		}
		lastEnd[p.Lane] = p.Comment.Timestamp + cfg.Display
	}
}

func TestAllocate_Overflow(t *testing.T) {
	t.Parallel()

	cs := []types.TimedComment{scroll(0, "a"), scroll(1, "b"), scroll(2, "c")}

	res := Allocate(cs, Config{Lanes: 2, Overflow: OverflowLeastBusy})
	last := res.Placements[2]
	if !last.Overflow || last.Lane != 0 {
		t.Fatalf("least-busy overflow should reuse lane 0: %+v", last)
	}
	if res.Overflowed != 1 {
		t.Fatalf("overflowed = %d, want 1", res.Overflowed)
	}

	seeded := func() Result {
		return Allocate(cs, Config{Lanes: 2, Rand: rand.New(rand.NewPCG(7, 7))})
	}
	a, b := seeded(), seeded()
	if a.Placements[2].Lane != b.Placements[2].Lane {
		t.Fatalf("seeded random overflow should be reproducible")
	}
	if l := a.Placements[2].Lane; l < 0 || l > 1 {
		t.Fatalf("random lane out of range: %d", l)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"negative lanes", Config{Lanes: -1}, true},
		{"negative display", Config{Display: -2}, true},
		{"bad policy", Config{Overflow: "drop"}, true},
		{"least busy", Config{Overflow: OverflowLeastBusy}, false},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Fatalf("%s: err=%v wantErr=%v", tt.name, err, tt.wantErr)
		}
	}
}
