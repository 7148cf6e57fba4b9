package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/forPelevin/streamclip/internal/preset"
	"github.com/forPelevin/streamclip/internal/store"
	"github.com/forPelevin/streamclip/internal/types"
)

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List or inspect streamer presets",
	}
	cmd.PersistentFlags().String("presets", "presets.yaml", "Streamer preset file (YAML)")

	load := func(cmd *cobra.Command) (*preset.Catalog, error) {
		path, _ := cmd.Flags().GetString("presets")
		return preset.Load(path)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := load(cmd)
			if err != nil {
				return err
			}
			printPresets(cmd.OutOrStdout(), cat.List())
			return nil
		},
	}
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := load(cmd)
			if err != nil {
				return err
			}
			p, err := cat.Resolve(args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			printPreset(cmd.OutOrStdout(), p)
			return nil
		},
	}
	show.Flags().Bool("json", false, "Print the preset as JSON")

	cmd.AddCommand(list, show)
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs, or the clips of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			if path == "" {
				return errors.New("config: --db or STREAMCLIP_DB is required")
			}
			st, err := store.Open(path)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := commandContext(cmd, 0)
			defer cancel()

			if len(args) == 1 {
				clips, err := st.RunClips(ctx, args[0])
				if err != nil {
					return err
				}
				printRecommendations(cmd.OutOrStdout(), args[0], types.Recommendations{Total: len(clips), Clips: clips})
				return nil
			}
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	addHistoryFlag(cmd)
	cmd.Flags().Int("limit", 20, "Number of runs to list")
	return cmd
}
