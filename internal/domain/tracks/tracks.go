// Package tracks lays scrolling comments out on a fixed number of display
// lanes so that comments visible at the same time do not share a lane.
package tracks

import (
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/forPelevin/streamclip/internal/types"
)

const (
	DefaultLanes   = 15
	DefaultDisplay = 8.0
)

// OverflowPolicy picks a lane when every lane is busy.
type OverflowPolicy string

const (
	// OverflowRandom picks a lane uniformly at random.
	OverflowRandom OverflowPolicy = "random"
	// OverflowLeastBusy picks the lane that frees up first (lowest index on ties).
	OverflowLeastBusy OverflowPolicy = "least-busy"
)

// Config controls allocation. Display is how long a comment stays on
// screen, in seconds. Rand drives OverflowRandom; nil uses the global source.
type Config struct {
	Lanes    int
	Display  float64
	Overflow OverflowPolicy
	Rand     *rand.Rand
}

// SeededRand returns a reproducible source for OverflowRandom.
func SeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func (c Config) withDefaults() Config {
	if c.Lanes == 0 {
		c.Lanes = DefaultLanes
	}
	if c.Display == 0 {
		c.Display = DefaultDisplay
	}
	if c.Overflow == "" {
		c.Overflow = OverflowRandom
	}
	return c
}

func (c Config) Validate() error {
	c = c.withDefaults()
	if c.Lanes < 0 {
		return errors.New("lanes must be > 0")
	}
	if c.Display < 0 {
		return errors.New("display duration must be > 0")
	}
	switch c.Overflow {
	case OverflowRandom, OverflowLeastBusy:
	default:
		return errors.New("overflow policy must be random or least-busy")
	}
	return nil
}

// Placement is a comment with its lane. Lane is -1 for anchored (TOP/BOTTOM)
// comments. Overflow marks a lane chosen while every lane was busy.
type Placement struct {
	Comment  types.TimedComment `json:"comment"`
	Lane     int                `json:"lane"`
	Anchored bool               `json:"anchored,omitempty"`
	Overflow bool               `json:"overflow,omitempty"`
}

type Result struct {
	Placements []Placement `json:"placements"`
	Overflowed int         `json:"overflowed"`
}

// Allocate assigns lanes first-fit in ascending timestamp order. A lane is
// free for a comment at t when its previous comment left the screen at or
// before t. Comments with equal timestamps keep their input order.
func Allocate(comments []types.TimedComment, cfg Config) Result {
	cfg = cfg.withDefaults()

	sorted := make([]types.TimedComment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	busyUntil := make([]float64, cfg.Lanes)
	res := Result{Placements: make([]Placement, 0, len(sorted))}

	for _, c := range sorted {
		if c.DisplayMode == types.ModeTop || c.DisplayMode == types.ModeBottom {
			res.Placements = append(res.Placements, Placement{Comment: c, Lane: -1, Anchored: true})
			continue
		}

		lane := firstFree(busyUntil, c.Timestamp)
		overflow := lane < 0
		if overflow {
			lane = cfg.pickOverflow(busyUntil)
			res.Overflowed++
		}
		busyUntil[lane] = c.Timestamp + cfg.Display
		res.Placements = append(res.Placements, Placement{Comment: c, Lane: lane, Overflow: overflow})
	}
	return res
}

func firstFree(busyUntil []float64, t float64) int {
	for i, b := range busyUntil {
		if b <= t {
			return i
		}
	}
	return -1
}

func (c Config) pickOverflow(busyUntil []float64) int {
	if c.Overflow == OverflowLeastBusy {
		best := 0
		for i := 1; i < len(busyUntil); i++ {
			if busyUntil[i] < busyUntil[best] {
				best = i
			}
		}
		return best
	}
	if c.Rand != nil {
		return c.Rand.IntN(len(busyUntil))
	}
	return rand.IntN(len(busyUntil))
}
