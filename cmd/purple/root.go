package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	dataPath   string
	adapter    string
	outputType string
	localRoot  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "purple",
	Short: "Notes with reminders and a task checklist, kept in a shared data directory",
	Long: `purple keeps notes (with optional reminders and pinning) and an ordered task
checklist as JSON files. Several purple processes can work on the same data
directory; "purple watch" shows the changes the others make and raises
reminders as they fall due.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataPath, "path", "", "Data directory (default from .purple.yaml or PURPLE_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&localRoot, "local", "l", false, "Use the nearest data directory above the current directory")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs or memory")
	rootCmd.PersistentFlags().StringVarP(&outputType, "output", "o", "table", "Output format. One of 'table', 'json' or 'yaml'.")
}
