package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "streamclip",
		Short:         "Find highlight clips in a live broadcast from its comments and transcript",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAnalyzeCmd(),
		newCutCmd(),
		newRunCmd(),
		newBatchCmd(),
		newPresetsCmd(),
		newHistoryCmd(),
		newServeCmd(),
	)
	return root
}

// stderrLogf writes progress lines to the command's stderr.
func stderrLogf(cmd *cobra.Command) func(string, ...any) {
	w := cmd.ErrOrStderr()
	return func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

func quietLogf(cmd *cobra.Command) func(string, ...any) {
	if q, _ := cmd.Flags().GetBool("quiet"); q {
		return func(string, ...any) {}
	}
	return stderrLogf(cmd)
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
