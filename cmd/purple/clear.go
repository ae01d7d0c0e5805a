package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all notes, tasks and the theme preference",
	Long: `Delete all notes, tasks and the theme preference. Files in the data
directory that purple does not own are left alone.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !clearYes {
			fatal("Refusing to clear", fmt.Errorf("pass --yes to confirm"))
		}

		app := openApp()
		defer closeApp(app)

		if err := app.Store.ClearAll(context.Background()); err != nil {
			fatal("Failed to clear data", err)
		}
		fmt.Println("All data cleared.")
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Confirm deletion")
}
