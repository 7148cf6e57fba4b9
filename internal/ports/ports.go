package ports

import (
	"context"
	"time"

	"github.com/forPelevin/streamclip/internal/types"
)

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error
	// RenderClip cuts [start,end] from inMP4. A non-empty burnASS is burned
	// in as an overlay.
	RenderClip(ctx context.Context, inMP4 string, start, end time.Duration, outMP4 string, burnASS string) error
	ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error)
}

// ASR produces a transcript when no subtitle file is supplied.
type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) ([]types.TranscriptEntry, error)
}

// TitleRefiner proposes one title per recommendation, in order. Callers
// fall back to the heuristic titles on error.
type TitleRefiner interface {
	RefineTitles(ctx context.Context, p types.Preset, recs []types.ClipRecommendation) ([]string, error)
}
