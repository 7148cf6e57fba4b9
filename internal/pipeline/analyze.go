package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/streamclip/internal/domain/events"
	"github.com/forPelevin/streamclip/internal/store"
	"github.com/forPelevin/streamclip/internal/types"
	"github.com/forPelevin/streamclip/internal/usecase"
)

// AnalyzeResult is what one analysis produced and where it was written.
type AnalyzeResult struct {
	RunID    string
	OutDir   string
	Preset   types.Preset
	Comments []types.TimedComment
	usecase.Analysis
}

type inputs struct {
	comments   []types.TimedComment
	transcript []types.TranscriptEntry
	// names used for the per-stream artifacts
	commentsName   string
	transcriptName string
}

// Analyze parses the inputs, runs the engine and writes
// <comments>.danmaku_analysis.json, <transcript>.semantic_analysis.json and
// clip_recommendations.json into OutDir.
func Analyze(ctx context.Context, cfg Config) (AnalyzeResult, error) {
	if cfg.CommentsPath == "" && cfg.TranscriptPath == "" {
		return AnalyzeResult{}, errors.New("comments or transcript file is required")
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return AnalyzeResult{}, err
	}
	st, err := openStore(cfg.DBPath)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if st != nil {
		defer st.Close()
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	return analyzeLoaded(ctx, cfg, in, outDir, st)
}

func loadInputs(cfg Config) (inputs, error) {
	logf := cfg.logf()
	in := inputs{commentsName: "danmaku", transcriptName: "transcript"}

	if cfg.CommentsPath != "" {
		f, err := events.DetectCommentFormat(cfg.CommentsPath)
		if err != nil {
			return inputs{}, err
		}
		b, err := readInput("comments", cfg.CommentsPath)
		if err != nil {
			return inputs{}, err
		}
		cs, st, err := events.ParseComments(b, f)
		if err != nil {
			return inputs{}, err
		}
		logStats(logf, "comments", st)
		in.comments = cs
		in.commentsName = baseName(cfg.CommentsPath)
	}

	if cfg.TranscriptPath != "" {
		f, err := events.DetectTranscriptFormat(cfg.TranscriptPath)
		if err != nil {
			return inputs{}, err
		}
		b, err := readInput("transcript", cfg.TranscriptPath)
		if err != nil {
			return inputs{}, err
		}
		es, st, err := events.ParseTranscript(b, f)
		if err != nil {
			return inputs{}, err
		}
		logStats(logf, "transcript", st)
		in.transcript = es
		in.transcriptName = baseName(cfg.TranscriptPath)
	}
	return in, nil
}

func logStats(logf func(string, ...any), kind string, st events.Stats) {
	logf("%s: parsed %d, skipped %d", kind, st.Parsed, st.Skipped)
	for i, err := range st.Errs {
		if i == 3 {
			logf("  ... %d more", st.Skipped-3)
			break
		}
		logf("  %v", err)
	}
}

func analyzeLoaded(ctx context.Context, cfg Config, in inputs, outDir string, st *store.Store) (AnalyzeResult, error) {
	logf := cfg.logf()

	p, lex, err := cfg.loadPreset()
	if err != nil {
		return AnalyzeResult{}, err
	}
	logf("preset: %s (%s)", p.Name, p.Key)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return AnalyzeResult{}, err
	}

	a, err := cfg.usecase().Analyze(ctx, usecase.AnalyzeInput{
		Comments:     in.comments,
		Transcript:   in.transcript,
		Preset:       p,
		Lexicon:      lex,
		WindowSize:   cfg.WindowSize,
		TopN:         cfg.TopN,
		RefineTitles: cfg.AITitles,
		Logf:         logf,
	})
	if err != nil {
		return AnalyzeResult{}, err
	}

	if err := writeJSON(filepath.Join(outDir, in.commentsName+DensityFileSuffix), a.Density); err != nil {
		return AnalyzeResult{}, err
	}
	if err := writeJSON(filepath.Join(outDir, in.transcriptName+SemanticFileSuffix), a.Segments); err != nil {
		return AnalyzeResult{}, err
	}
	recPath := filepath.Join(outDir, RecommendationsFile)
	if err := writeJSON(recPath, a.Recommendations); err != nil {
		return AnalyzeResult{}, err
	}
	logf("recommendations written (%d clips): %s", a.Recommendations.Total, recPath)

	res := AnalyzeResult{
		RunID:    uuid.NewString(),
		OutDir:   outDir,
		Preset:   p,
		Comments: in.comments,
		Analysis: a,
	}
	if st != nil {
		run := store.Run{
			ID:         res.RunID,
			CreatedAt:  time.Now().UTC(),
			Comments:   cfg.CommentsPath,
			Transcript: cfg.TranscriptPath,
			Preset:     p.Key,
			OutDir:     outDir,
		}
		if err := st.SaveRun(ctx, run, a.Recommendations.Clips); err != nil {
			return AnalyzeResult{}, fmt.Errorf("record history: %w", err)
		}
		logf("history: recorded run %s", res.RunID)
	}
	return res, nil
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}
