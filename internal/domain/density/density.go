// Package density buckets timed comments into fixed windows and flags the
// windows whose activity stands out from the broadcast average.
package density

import (
	"math"
	"sort"

	"github.com/forPelevin/streamclip/internal/domain/events"
	"github.com/forPelevin/streamclip/internal/domain/lexicon"
	"github.com/forPelevin/streamclip/internal/types"
)

const (
	DefaultWindowSize = 30.0
	DefaultTopN       = 10
	// PeakFactor: a window is a peak when count > PeakFactor * average.
	PeakFactor = 1.5
	// peakKeywords is how many keywords each peak carries.
	peakKeywords = 5
)

type Options struct {
	WindowSize float64
	TopN       int
	StopWords  []string
}

func (o Options) withDefaults() Options {
	if o.WindowSize <= 0 {
		o.WindowSize = DefaultWindowSize
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	return o
}

// Analyze computes contiguous windows over [0, maxTimestamp], the average
// count per window and the top peaks sorted by count descending.
// Comments must already be sorted by timestamp; comments outside
// [0, events.MaxBroadcastSeconds] are ignored and not counted.
func Analyze(comments []types.TimedComment, opts Options) types.DensityResult {
	opts = opts.withDefaults()
	comments = inRange(comments)
	res := types.DensityResult{WindowSize: opts.WindowSize, TotalComments: len(comments)}
	if len(comments) == 0 {
		res.Windows = []types.DensityWindow{}
		res.Peaks = []types.DensityWindow{}
		return res
	}

	res.Windows = Windows(comments, opts.WindowSize)
	res.AverageDensity = Average(res.Windows)

	authors := make(map[string]struct{})
	for _, c := range comments {
		authors[c.AuthorID] = struct{}{}
	}
	res.TotalAuthors = len(authors)

	ex := lexicon.Extractor{StopWords: opts.StopWords}
	res.Peaks = Peaks(res.Windows, res.AverageDensity, opts.TopN)
	for i := range res.Peaks {
		res.Peaks[i].Keywords = ex.Keywords(res.Peaks[i].Texts, peakKeywords)
	}
	return res
}

// Windows buckets comments by floor(ts/size)*size. Every window from 0 up to
// the last comment's window is emitted, empty ones included. Out of range
// timestamps are dropped.
func Windows(comments []types.TimedComment, size float64) []types.DensityWindow {
	comments = inRange(comments)
	if len(comments) == 0 || size <= 0 {
		return []types.DensityWindow{}
	}
	last := 0
	for _, c := range comments {
		if b := bucket(c.Timestamp, size); b > last {
			last = b
		}
	}

	out := make([]types.DensityWindow, last+1)
	authors := make([]map[string]struct{}, last+1)
	for i := range out {
		start := float64(i) * size
		out[i] = types.DensityWindow{WindowStart: start, WindowEnd: start + size}
	}
	for _, c := range comments {
		b := bucket(c.Timestamp, size)
		w := &out[b]
		w.Count++
		w.Texts = append(w.Texts, c.Text)
		if authors[b] == nil {
			authors[b] = make(map[string]struct{})
		}
		authors[b][c.AuthorID] = struct{}{}
	}
	for i := range out {
		out[i].UniqueAuthors = len(authors[i])
	}
	return out
}

// Average is total count over window count, 0 when there are no windows.
func Average(ws []types.DensityWindow) float64 {
	if len(ws) == 0 {
		return 0
	}
	total := 0
	for _, w := range ws {
		total += w.Count
	}
	return float64(total) / float64(len(ws))
}

// Peaks keeps windows with count > PeakFactor*avg, highest count first;
// equal counts stay in time order.
func Peaks(ws []types.DensityWindow, avg float64, topN int) []types.DensityWindow {
	threshold := avg * PeakFactor
	out := []types.DensityWindow{}
	for _, w := range ws {
		if float64(w.Count) > threshold {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

func inRange(cs []types.TimedComment) []types.TimedComment {
	ok := func(ts float64) bool { return ts >= 0 && ts <= events.MaxBroadcastSeconds }
	for i, c := range cs {
		if ok(c.Timestamp) {
			continue
		}
		kept := append([]types.TimedComment(nil), cs[:i]...)
		for _, c := range cs[i+1:] {
			if ok(c.Timestamp) {
				kept = append(kept, c)
			}
		}
		return kept
	}
	return cs
}

func bucket(ts, size float64) int {
	return int(math.Floor(ts / size))
}
