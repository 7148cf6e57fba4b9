package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forPelevin/streamclip/internal/domain/density"
	"github.com/forPelevin/streamclip/internal/domain/highlights"
	"github.com/forPelevin/streamclip/internal/domain/tracks"
	"github.com/forPelevin/streamclip/internal/pipeline"
	"github.com/forPelevin/streamclip/internal/ports/adapters/openrouter"
)

func addPresetFlags(cmd *cobra.Command) {
	cmd.Flags().String("presets", "presets.yaml", "Streamer preset file (YAML)")
	cmd.Flags().String("preset", "", "Preset key or display name (default generic)")
	cmd.Flags().String("lexicon", "", "Extra lexicon file (YAML) merged over the built-in tables")
}

func addAnalysisFlags(cmd *cobra.Command) {
	addPresetFlags(cmd)
	cmd.Flags().Float64("window", density.DefaultWindowSize, "Comment density window in seconds")
	cmd.Flags().Int("top", highlights.DefaultTopN, "Number of clips to recommend")
	cmd.Flags().Bool("ai-titles", false, "Refine titles with OpenRouter (needs OPENROUTER_API_KEY)")
	addHistoryFlag(cmd)
}

func addHistoryFlag(cmd *cobra.Command) {
	cmd.Flags().String("db", os.Getenv("STREAMCLIP_DB"), "SQLite run history (env STREAMCLIP_DB); empty disables it")
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Int("lanes", tracks.DefaultLanes, "Danmaku display lanes")
	cmd.Flags().Float64("display", tracks.DefaultDisplay, "Seconds each comment stays on screen")
	cmd.Flags().String("overflow", string(tracks.OverflowRandom), "Lane choice when all lanes are busy: random|least-busy")
	cmd.Flags().Uint64("seed", 0, "Seed for random overflow (0 = nondeterministic)")
	cmd.Flags().Bool("burn", true, "Burn the danmaku subtitles into the clip")

	// Hidden tool paths
	cmd.Flags().String("ffmpeg", "ffmpeg", "ffmpeg binary")
	cmd.Flags().String("ffprobe", "ffprobe", "ffprobe binary")
	_ = cmd.Flags().MarkHidden("ffmpeg")
	_ = cmd.Flags().MarkHidden("ffprobe")
}

func addWhisperFlags(cmd *cobra.Command) {
	cmd.Flags().String("whisper-bin", ".cache/bin/whisper.cpp", "whisper.cpp binary")
	cmd.Flags().String("whisper-model", ".cache/models/ggml-base.bin", "whisper.cpp model")
	cmd.Flags().String("language", "auto", "Spoken language for transcription")
}

// buildConfig reads every known flag; flags a command does not define stay zero.
func buildConfig(cmd *cobra.Command) (pipeline.Config, error) {
	f := cmd.Flags()
	str := func(name string) string {
		v, _ := f.GetString(name)
		return v
	}
	abs := func(name string) (string, error) {
		v := str(name)
		if v == "" {
			return "", nil
		}
		return filepath.Abs(v)
	}

	cfg := pipeline.Config{
		OutDir:          str("out"),
		PresetName:      str("preset"),
		LexiconPath:     str("lexicon"),
		DBPath:          str("db"),
		Overflow:        str("overflow"),
		FFmpegPath:      str("ffmpeg"),
		FFprobePath:     str("ffprobe"),
		WhisperBin:      str("whisper-bin"),
		WhisperModel:    str("whisper-model"),
		WhisperLanguage: str("language"),
		PresetsPath:     str("presets"),
		CacheDir:        str("cache"),
		Logf:            quietLogf(cmd),
	}
	cfg.WindowSize, _ = f.GetFloat64("window")
	cfg.TopN, _ = f.GetInt("top")
	cfg.Lanes, _ = f.GetInt("lanes")
	cfg.DisplaySec, _ = f.GetFloat64("display")
	cfg.Seed, _ = f.GetUint64("seed")
	cfg.BurnDanmaku, _ = f.GetBool("burn")
	cfg.AITitles, _ = f.GetBool("ai-titles")

	var err error
	for _, p := range []struct {
		dst  *string
		flag string
	}{
		{&cfg.CommentsPath, "comments"},
		{&cfg.TranscriptPath, "transcript"},
		{&cfg.InputMP4, "video"},
		{&cfg.Recommendations, "recommendations"},
	} {
		if *p.dst, err = abs(p.flag); err != nil {
			return pipeline.Config{}, err
		}
	}

	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.OpenRouterModel = getenvDefault("OPENROUTER_MODEL", "z-ai/glm-4.5-air:free")
	cfg.OpenRouterBaseURL = getenvDefault("OPENROUTER_BASE_URL", "https://openrouter.ai")
	cfg.OpenRouterAllowedHosts = openrouter.SplitHosts(os.Getenv("OPENROUTER_ALLOWED_HOSTS"))

	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
