package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/purple/pkg/core"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or change the theme preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		ctx := context.Background()
		if len(args) == 0 {
			fmt.Println(app.Store.LoadTheme(ctx))
			return
		}

		if args[0] == "toggle" {
			theme, err := app.Store.ToggleTheme(ctx)
			if err != nil {
				fatal("Failed to toggle theme", err)
			}
			fmt.Println(theme)
			return
		}

		if err := app.Store.SaveTheme(ctx, core.Theme(args[0])); err != nil {
			fatal("Failed to save theme", err)
		}
		fmt.Println(args[0])
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
