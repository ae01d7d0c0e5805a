package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/purple"
	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/reminder"
)

var watchPattern string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made by other purple processes and raise due reminders",
	Example: `
purple watch
purple watch --keys tasks
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := openApp(purple.WithNotifier(reminder.NotifierFunc(printNotification)))
		defer closeApp(app)

		events, cancel, err := app.Bus.Subscribe(watchPattern)
		if err != nil {
			fatal("Invalid key pattern", err)
		}
		defer cancel()

		if err := app.Start(ctx); err != nil {
			fatal("Failed to start watching", err)
		}
		_, _ = faint.Println("watching, press Ctrl+C to stop")

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				printChange(ev)
			}
		}
	},
}

func printChange(ev core.ChangeEvent) {
	stamp := faint.Sprint(time.UnixMilli(ev.Timestamp).Local().Format("15:04:05"))
	fmt.Printf("%s %s\n", stamp, ev)
}

func printNotification(_ context.Context, n reminder.Notification) {
	_, _ = pin.Printf("\a⏰ %s\n", n.Title)
	if n.Content != "" {
		fmt.Printf("   %s\n", n.Content)
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "keys", "*", "Only show changes to keys matching this glob")
}
