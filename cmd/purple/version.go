package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	goversion "go.hein.dev/go-version"

	"github.com/aretw0/purple"
)

var (
	shortened = false
	commit    = "none"
	date      = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Version will output the current build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		output := outputType
		if output == "table" {
			output = "json"
		}
		resp := goversion.FuncWithOutput(shortened, strings.TrimSpace(purple.Version), commit, date, output)
		fmt.Print(resp)
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	rootCmd.AddCommand(versionCmd)
}
