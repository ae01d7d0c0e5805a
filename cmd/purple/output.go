package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/reminder"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
	pin   = color.New(color.FgHiYellow)
	done  = color.New(color.FgGreen)
)

// printStructured writes v as JSON or YAML and reports whether it did.
func printStructured(v any) bool {
	switch outputType {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			fatal("Error encoding JSON", err)
		}
		return true
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			fatal("Error encoding YAML", err)
		}
		return true
	}
	return false
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func printNotes(notes []core.Note, now int64) {
	if printStructured(notes) {
		return
	}
	if len(notes) == 0 {
		_, _ = faint.Println("no notes")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint(""), bold.Sprint("Title"), bold.Sprint("Created"), bold.Sprint("Reminder"))
	for _, n := range notes {
		flag := ""
		if n.Pinned {
			flag = pin.Sprint("*")
		}
		tbl.AddRow(n.ID, flag, n.Title, faint.Sprint(formatMillis(n.Created)), reminderColumn(n, now))
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func reminderColumn(n core.Note, now int64) string {
	switch reminder.StatusOf(n, now) {
	case reminder.NoReminder:
		return ""
	case reminder.Notified:
		return faint.Sprint("alerted")
	case reminder.Due:
		return pin.Sprint("due")
	}
	return fmt.Sprintf("in %s (%.0f%%)", reminder.RemainingTime(n, now), reminder.CalculateProgress(n, now))
}

func printTasks(tasks []core.Task) {
	if printStructured(tasks) {
		return
	}
	if len(tasks) == 0 {
		_, _ = faint.Println("no tasks")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("#"), bold.Sprint("ID"), bold.Sprint(""), bold.Sprint("Task"))
	for i, t := range tasks {
		box, text := "[ ]", t.Text
		if t.Completed {
			box, text = done.Sprint("[x]"), faint.Sprint(t.Text)
		}
		tbl.AddRow(i, t.ID, box, text)
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func printInfo(info core.StorageInfo) {
	if printStructured(info) {
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Notes"), info.NotesCount)
	tbl.AddRow(bold.Sprint("Tasks"), info.TasksCount)
	tbl.AddRow(bold.Sprint("Used"), fmt.Sprintf("%d bytes of %d (%.2f%%)", info.StorageUsed, info.MaxStorage,
		float64(info.StorageUsed)/float64(max(info.MaxStorage, 1))*100))
	_, _ = fmt.Fprintln(color.Output, tbl)
}
