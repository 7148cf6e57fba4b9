package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/streamclip/internal/types"
	"github.com/forPelevin/streamclip/internal/usecase"
)

// Cut renders clips from an existing clip_recommendations.json.
func Cut(ctx context.Context, cfg Config) (types.Manifest, error) {
	logf := cfg.logf()
	if cfg.Recommendations == "" {
		return types.Manifest{}, errors.New("recommendations file is required")
	}
	if err := requireVideo(cfg.InputMP4); err != nil {
		return types.Manifest{}, err
	}
	b, err := readInput("recommendations", cfg.Recommendations)
	if err != nil {
		return types.Manifest{}, err
	}
	var recs types.Recommendations
	if err := json.Unmarshal(b, &recs); err != nil {
		return types.Manifest{}, fmt.Errorf("parse %s: %w", cfg.Recommendations, err)
	}
	in, err := loadInputs(Config{CommentsPath: cfg.CommentsPath, Logf: cfg.Logf})
	if err != nil {
		return types.Manifest{}, err
	}

	runOutDir, err := prepareRunDir(cfg)
	if err != nil {
		return types.Manifest{}, err
	}
	logf("output run dir: %s", runOutDir)
	return render(ctx, cfg, uuid.NewString(), "", in.comments, recs.Clips, runOutDir)
}

// Run is the whole flow for one broadcast: parse (or transcribe), analyze,
// then render every recommendation into a fresh run directory.
func Run(ctx context.Context, cfg Config) (types.Manifest, error) {
	logf := cfg.logf()
	if err := requireVideo(cfg.InputMP4); err != nil {
		return types.Manifest{}, err
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return types.Manifest{}, err
	}

	if cfg.TranscriptPath == "" {
		if cfg.WhisperModel == "" {
			return types.Manifest{}, errors.New("no transcript given and no whisper model configured")
		}
		cacheDir, err := prepareCacheDir(cfg)
		if err != nil {
			return types.Manifest{}, err
		}
		logf("transcribing %s", cfg.InputMP4)
		es, err := cfg.usecase().Transcribe(ctx, cfg.InputMP4, cacheDir)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("transcribe: %w", err)
		}
		in.transcript = es
		in.transcriptName = baseName(cfg.InputMP4)
	}

	runOutDir, err := prepareRunDir(cfg)
	if err != nil {
		return types.Manifest{}, err
	}
	logf("output run dir: %s", runOutDir)

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return types.Manifest{}, err
	}
	if st != nil {
		defer st.Close()
	}
	res, err := analyzeLoaded(ctx, cfg, in, runOutDir, st)
	if err != nil {
		return types.Manifest{}, err
	}
	return render(ctx, cfg, res.RunID, res.Preset.Key, res.Comments, res.Recommendations.Clips, runOutDir)
}

func render(ctx context.Context, cfg Config, runID, presetKey string, comments []types.TimedComment, clips []types.ClipRecommendation, runOutDir string) (types.Manifest, error) {
	logf := cfg.logf()
	m, err := cfg.usecase().Render(ctx, usecase.RenderInput{
		RunID:       runID,
		InputMP4:    cfg.InputMP4,
		Preset:      presetKey,
		Comments:    comments,
		Clips:       clips,
		OutDir:      runOutDir,
		Tracks:      cfg.trackConfig(),
		BurnDanmaku: cfg.BurnDanmaku,
		Logf:        logf,
	})
	if err != nil {
		return types.Manifest{}, err
	}
	manifestPath := filepath.Join(runOutDir, ManifestFile)
	if err := writeJSON(manifestPath, m); err != nil {
		return types.Manifest{}, err
	}
	logf("manifest written (%d clips): %s", len(m.Clips), manifestPath)
	return m, nil
}

func requireVideo(path string) error {
	if path == "" {
		return errors.New("input video is required")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: video %s", ErrMissingInput, path)
	} else if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	return nil
}

func prepareRunDir(cfg Config) (string, error) {
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.InputMP4, time.Now().UTC())
	if err := os.MkdirAll(filepath.Join(runOutDir, "clips"), 0o755); err != nil {
		return "", err
	}
	return runOutDir, nil
}

func prepareCacheDir(cfg Config) (string, error) {
	base := cfg.CacheDir
	if base == "" {
		base = ".cache"
	}
	cacheDir := filepath.Join(base, "runs", hash(cfg.InputMP4))
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}
	cfg.logf()("cache: %s", cacheDir)
	return cacheDir, nil
}
