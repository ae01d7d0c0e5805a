package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/purple"
	"github.com/aretw0/purple/pkg/core"
)

var (
	noteContent string
	noteRemind  time.Duration
	noteAt      string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a note, optionally with a reminder",
	Example: `
purple note add "Call Ana" --content "about the trip" --in 30m
purple note add "Dentist" --at "2026-11-02 09:30"
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		in := purple.NewNote{Title: args[0], Content: noteContent}
		switch {
		case noteAt != "":
			at, err := time.ParseInLocation("2006-01-02 15:04", noteAt, time.Local)
			if err != nil {
				fatal("Invalid --at value", err)
			}
			ms := at.UnixMilli()
			in.Reminder = &ms
		case noteRemind > 0:
			ms := time.Now().Add(noteRemind).UnixMilli()
			in.Reminder = &ms
		}

		n, err := app.Notes.Create(context.Background(), in)
		if err != nil {
			fatal("Failed to save note", err)
		}
		fmt.Printf("Note %d saved.\n", n.ID)
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, pinned first then newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		printNotes(app.Notes.Sorted(context.Background()), time.Now().UnixMilli())
	},
}

var notePinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin or unpin a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()
		defer closeApp(app)

		pinned, err := app.Notes.TogglePin(context.Background(), id)
		if err != nil {
			fatal("Failed to pin note", err)
		}
		if pinned {
			fmt.Printf("Note %d pinned.\n", id)
		} else {
			fmt.Printf("Note %d unpinned.\n", id)
		}
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note (pinned notes are kept)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()
		defer closeApp(app)

		err := app.Notes.Delete(context.Background(), id)
		if errors.Is(err, core.ErrPinned) {
			fatal("Unpin the note first", err)
		}
		if err != nil {
			fatal("Failed to delete note", err)
		}
		fmt.Printf("Note %d deleted.\n", id)
	},
}

var noteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every note, pinned ones included",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		if err := app.Notes.ClearAll(context.Background()); err != nil {
			fatal("Failed to clear notes", err)
		}
		fmt.Println("All notes deleted.")
	},
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fatal("Invalid id", err)
	}
	return id
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, notePinCmd, noteDeleteCmd, noteClearCmd)

	noteAddCmd.Flags().StringVarP(&noteContent, "content", "c", "", "Note content")
	noteAddCmd.Flags().DurationVar(&noteRemind, "in", 0, "Remind after this duration (e.g. 45m)")
	noteAddCmd.Flags().StringVar(&noteAt, "at", "", "Remind at this local time (YYYY-MM-DD HH:MM)")
}
