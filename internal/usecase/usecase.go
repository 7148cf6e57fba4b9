package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/forPelevin/streamclip/internal/domain/density"
	"github.com/forPelevin/streamclip/internal/domain/events"
	"github.com/forPelevin/streamclip/internal/domain/highlights"
	"github.com/forPelevin/streamclip/internal/domain/lexicon"
	"github.com/forPelevin/streamclip/internal/domain/segments"
	"github.com/forPelevin/streamclip/internal/domain/subtitles"
	"github.com/forPelevin/streamclip/internal/domain/tracks"
	"github.com/forPelevin/streamclip/internal/ports"
	"github.com/forPelevin/streamclip/internal/types"
)

type Deps struct {
	Video  ports.VideoTool
	ASR    ports.ASR
	Titler ports.TitleRefiner // optional
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

// AnalyzeInput configures one analysis. An empty Lexicon means
// lexicon.Default(); TopN bounds peaks, highlights and recommendations alike.
type AnalyzeInput struct {
	Comments     []types.TimedComment
	Transcript   []types.TranscriptEntry
	Preset       types.Preset
	Lexicon      lexicon.Lexicon
	WindowSize   float64
	TopN         int
	RefineTitles bool
	Logf         func(format string, args ...any)
}

type Analysis struct {
	Density         types.DensityResult
	Segments        types.SegmentResult
	Recommendations types.Recommendations
}

// Analyze runs both analyzers and the fusion engine. It only fails on
// context cancellation; empty inputs give empty results.
func (u Usecase) Analyze(ctx context.Context, in AnalyzeInput) (Analysis, error) {
	logf := orNop(in.Logf)
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}

	lex := in.Lexicon
	if len(lex.Emotions) == 0 {
		lex = lexicon.Default().Merge(lex)
	}
	topN := in.TopN
	if topN <= 0 {
		topN = highlights.DefaultTopN
	}

	d := density.Analyze(in.Comments, density.Options{
		WindowSize: in.WindowSize,
		TopN:       topN,
		StopWords:  lex.CommentStopWords,
	})
	logf("density: %d comments, %d windows, avg %.2f, %d peaks", d.TotalComments, len(d.Windows), d.AverageDensity, len(d.Peaks))

	s := segments.New(lex, topN).Analyze(in.Transcript)
	logf("segments: %d entries, %d segments, %d highlights", s.TotalEntries, len(s.Segments), len(s.Highlights))

	recs := highlights.Engine{Preset: in.Preset, TopN: topN}.Recommend(d.Peaks, s.Highlights)
	logf("recommendations: %d", len(recs))

	if in.RefineTitles && u.d.Titler != nil && len(recs) > 0 {
		titles, err := u.d.Titler.RefineTitles(ctx, in.Preset, recs)
		switch {
		case err != nil:
			logf("ai titles unavailable, keeping heuristic titles: %v", err)
		case len(titles) != len(recs):
			logf("ai titles: got %d titles for %d clips, keeping heuristic titles", len(titles), len(recs))
		default:
			for i := range recs {
				recs[i].Title = titles[i]
			}
		}
	}

	return Analysis{
		Density:         d,
		Segments:        s,
		Recommendations: types.Recommendations{Total: len(recs), Clips: recs},
	}, nil
}

// Transcribe extracts the audio track and runs ASR on it.
func (u Usecase) Transcribe(ctx context.Context, inputMP4, cacheDir string) ([]types.TranscriptEntry, error) {
	if u.d.Video == nil || u.d.ASR == nil {
		return nil, errors.New("transcription needs a video tool and an ASR backend")
	}
	wav := filepath.Join(cacheDir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, inputMP4, wav); err != nil {
		return nil, err
	}
	return u.d.ASR.Transcribe(ctx, wav, cacheDir)
}

// RenderInput configures clip rendering. Without BurnDanmaku the range is
// cut as-is and the .ass overlay is left next to the clip.
type RenderInput struct {
	RunID       string
	InputMP4    string
	Preset      string
	Comments    []types.TimedComment
	Clips       []types.ClipRecommendation
	OutDir      string
	Tracks      tracks.Config
	BurnDanmaku bool
	Logf        func(format string, args ...any)
}

type clipInfo struct {
	ID string `json:"id"`
	types.ClipRecommendation
	Comments int    `json:"comments"`
	Overflow int    `json:"lane_overflow"`
	File     string `json:"file"`
	Danmaku  string `json:"danmaku"`
}

// Render cuts every recommendation in timeline order. Each clip gets its
// comments restricted to the clip range and re-based to the clip start, a
// lane-allocated ASS overlay, the rendered video and an info.json.
func (u Usecase) Render(ctx context.Context, in RenderInput) (types.Manifest, error) {
	logf := orNop(in.Logf)
	if u.d.Video == nil {
		return types.Manifest{}, errors.New("render needs a video tool")
	}
	if err := in.Tracks.Validate(); err != nil {
		return types.Manifest{}, fmt.Errorf("tracks: %w", err)
	}

	clips := make([]types.ClipRecommendation, len(in.Clips))
	copy(clips, in.Clips)
	sort.SliceStable(clips, func(i, j int) bool { return clips[i].Start < clips[j].Start })

	// A zero duration means unknown and disables clamping.
	total, err := u.d.Video.ProbeDuration(ctx, in.InputMP4)
	if err != nil {
		return types.Manifest{}, err
	}
	totalSec := total.Seconds()

	m := types.Manifest{RunID: in.RunID, Input: in.InputMP4, Preset: in.Preset, Clips: []types.ManifestClip{}}
	for _, c := range clips {
		if err := ctx.Err(); err != nil {
			return types.Manifest{}, err
		}
		if totalSec > 0 {
			if c.Start >= totalSec {
				logf("skipping clip at %.1fs: video is %.1fs long", c.Start, totalSec)
				continue
			}
			if c.End > totalSec {
				c.End = totalSec
				c.Duration = c.End - c.Start
			}
		}
		id := fmt.Sprintf("%03d", len(m.Clips)+1)
		relDir := filepath.Join("clips", id)
		clipDir := filepath.Join(in.OutDir, relDir)
		if err := os.MkdirAll(clipDir, 0o755); err != nil {
			return types.Manifest{}, err
		}

		local := events.Between(in.Comments, c.Start, c.End)
		alloc := tracks.Allocate(local, in.Tracks)
		ass := subtitles.RenderDanmakuASS(alloc.Placements, subtitles.Options{Display: in.Tracks.Display})
		assPath := filepath.Join(clipDir, "danmaku.ass")
		if err := writeFile(assPath, []byte(ass)); err != nil {
			return types.Manifest{}, err
		}
		if alloc.Overflowed > 0 {
			logf("clip %s: %d comments placed on busy lanes", id, alloc.Overflowed)
		}

		burn := ""
		if in.BurnDanmaku {
			burn = assPath
		}
		clipPath := filepath.Join(clipDir, "clip.mp4")
		logf("rendering clip %s [%.1fs - %.1fs] %s", id, c.Start, c.End, c.Title)
		if err := u.d.Video.RenderClip(ctx, in.InputMP4, secs(c.Start), secs(c.End), clipPath, burn); err != nil {
			return types.Manifest{}, fmt.Errorf("clip %s: %w", id, err)
		}

		mc := types.ManifestClip{
			ID:       id,
			StartSec: c.Start,
			EndSec:   c.End,
			Score:    c.Score,
			Title:    c.Title,
			Keywords: c.Keywords,
			Reason:   c.Reason,
			File:     filepath.ToSlash(filepath.Join(relDir, "clip.mp4")),
			Danmaku:  filepath.ToSlash(filepath.Join(relDir, "danmaku.ass")),
			Comments: len(local),
			Overflow: alloc.Overflowed,
		}
		info, err := json.MarshalIndent(clipInfo{
			ID: id, ClipRecommendation: c,
			Comments: mc.Comments, Overflow: mc.Overflow, File: mc.File, Danmaku: mc.Danmaku,
		}, "", "  ")
		if err != nil {
			return types.Manifest{}, fmt.Errorf("marshal clip info: %w", err)
		}
		if err := writeFile(filepath.Join(clipDir, "info.json"), info); err != nil {
			return types.Manifest{}, err
		}
		m.Clips = append(m.Clips, mc)
	}
	return m, nil
}

func secs(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

func orNop(logf func(string, ...any)) func(string, ...any) {
	if logf == nil {
		return func(string, ...any) {}
	}
	return logf
}

func writeFile(path string, b []byte) error {
	return os.WriteFile(path, b, 0o644)
}
