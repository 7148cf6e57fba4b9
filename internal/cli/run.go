package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/streamclip/internal/pipeline"
)

// commandContext is cancelled on interrupt or after timeout (0 = none).
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() { cancel(); stop() }
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("comments", "", "Danmaku export (.xml or .json)")
	cmd.Flags().String("transcript", "", "Transcript (.srt or whisper .json)")
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score highlight candidates and write the analysis files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.CommentsPath == "" && cfg.TranscriptPath == "" {
				return errors.New("config: --comments or --transcript is required")
			}
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()

			res, err := pipeline.Analyze(ctx, cfg)
			if err != nil {
				return err
			}
			printRecommendations(cmd.OutOrStdout(), res.Preset.Name, res.Recommendations)
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().Bool("quiet", false, "Only print the result table")
	addAnalysisFlags(cmd)
	return cmd
}

func newCutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cut",
		Short: "Render clips with danmaku from an existing clip_recommendations.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, 3*time.Hour)
			defer cancel()

			m, err := pipeline.Cut(ctx, cfg)
			if err != nil {
				return err
			}
			printManifest(cmd.OutOrStdout(), m, cfg.OutDir)
			return nil
		},
	}
	cmd.Flags().String("recommendations", "", "clip_recommendations.json from analyze")
	cmd.Flags().String("video", "", "Broadcast recording")
	cmd.Flags().String("comments", "", "Danmaku export to burn into the clips")
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().Bool("quiet", false, "Only print the result table")
	_ = cmd.MarkFlagRequired("recommendations")
	_ = cmd.MarkFlagRequired("video")
	addRenderFlags(cmd)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Analyze a broadcast and render its highlight clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.InputMP4, err = filepath.Abs(args[0]); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, 3*time.Hour)
			defer cancel()

			m, err := pipeline.Run(ctx, cfg)
			if err != nil {
				return err
			}
			printManifest(cmd.OutOrStdout(), m, cfg.OutDir)
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().String("cache", ".cache", "Cache directory for extracted audio and transcripts")
	cmd.Flags().Bool("quiet", false, "Only print the result table")
	addAnalysisFlags(cmd)
	addRenderFlags(cmd)
	addWhisperFlags(cmd)
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir>...",
		Short: "Analyze several broadcast directories in parallel",
		Long: "Each directory holds one broadcast: danmaku.xml or comments.json (else the first .xml)\n" +
			"and the first .srt (else transcript.json). A failing directory does not stop the others.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			workers, _ := cmd.Flags().GetInt("workers")
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()

			items, err := pipeline.RunBatch(ctx, cfg, args, workers)
			if len(items) > 0 {
				printBatch(cmd.OutOrStdout(), items)
			}
			return err
		},
	}
	cmd.Flags().String("out", "", "Output root (default <dir>/streamclip)")
	cmd.Flags().Int("workers", pipeline.DefaultBatchWorkers, "Directories analyzed at once")
	cmd.Flags().Bool("quiet", false, "Only print the result table")
	addAnalysisFlags(cmd)
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis and lane allocation over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			ctx, cancel := commandContext(cmd, 0)
			defer cancel()
			return pipeline.Serve(ctx, cfg, addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	addPresetFlags(cmd)
	addHistoryFlag(cmd)
	cmd.Flags().Bool("ai-titles", false, "Allow requests to refine titles with OpenRouter")
	return cmd
}
