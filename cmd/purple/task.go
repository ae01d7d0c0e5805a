package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/purple/pkg/core"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the task checklist",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Append a task to the checklist",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		t, err := app.Tasks.Create(context.Background(), strings.Join(args, " "))
		if err != nil {
			fatal("Failed to add task", err)
		}
		fmt.Printf("Task %d added.\n", t.ID)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in checklist order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		printTasks(app.Tasks.All(context.Background()))
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a task between open and completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()
		defer closeApp(app)

		app.Tasks.OnComplete(func(t core.Task) {
			_, _ = done.Printf("✔ %s\n", t.Text)
		})

		completed, err := app.Tasks.ToggleComplete(context.Background(), id)
		if err != nil {
			fatal("Failed to update task", err)
		}
		if !completed {
			fmt.Printf("Task %d reopened.\n", id)
		}
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id> <text>...",
	Short: "Replace the text of a task",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()
		defer closeApp(app)

		if _, err := app.Tasks.Edit(context.Background(), id, strings.Join(args[1:], " ")); err != nil {
			fatal("Failed to edit task", err)
		}
		fmt.Printf("Task %d updated.\n", id)
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move the task at position <from> to position <to> (as shown by list)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		from, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid position", err)
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid position", err)
		}

		app := openApp()
		defer closeApp(app)

		if err := app.Tasks.Reorder(context.Background(), from, to); err != nil {
			fatal("Failed to move task", err)
		}
		printTasks(app.Tasks.All(context.Background()))
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0])
		app := openApp()
		defer closeApp(app)

		if err := app.Tasks.Delete(context.Background(), id); err != nil {
			fatal("Failed to delete task", err)
		}
		fmt.Printf("Task %d deleted.\n", id)
	},
}

var taskClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete completed tasks, or every task with --all",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp()
		defer closeApp(app)

		ctx := context.Background()
		if clearAllTasks {
			if err := app.Tasks.ClearAll(ctx); err != nil {
				fatal("Failed to clear tasks", err)
			}
			fmt.Println("All tasks deleted.")
			return
		}

		n, err := app.Tasks.ClearCompleted(ctx)
		if err != nil {
			fatal("Failed to clear completed tasks", err)
		}
		fmt.Printf("%d completed task(s) deleted.\n", n)
	},
}

var clearAllTasks bool

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskEditCmd, taskMoveCmd, taskDeleteCmd, taskClearCmd)

	taskClearCmd.Flags().BoolVar(&clearAllTasks, "all", false, "Delete open tasks too")
}
