package main

import (
	"context"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show item counts and storage usage",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		printInfo(app.Store.Info(context.Background()))
	},
}

var stateCmd = &cobra.Command{
	Use:    "state",
	Short:  "Dump the internal state of every component",
	Hidden: true,
	Args:   cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		if outputType == "table" {
			outputType = "json"
		}
		printStructured(app.State())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd, stateCmd)
}
