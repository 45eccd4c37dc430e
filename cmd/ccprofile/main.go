package main

import (
	"os"

	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
)

func main() {
	exit := run()
	os.Exit(exit)
}

// run is the main entry point
func run() int {
	// Initialize application
	a := app.New(version, commit, date)
	w := output.New(os.Stdout, os.Stderr)

	// Create root command
	root := NewRootCommand()

	// Add subcommands
	root.AddCommand(NewSpecCommand(&a, &w))
	root.AddCommand(NewVersionCommand(&a, &w))
	root.AddCommand(NewInitCommand(&w))
	root.AddCommand(NewSaveCommand(&w))
	root.AddCommand(NewSwitchCommand(&w))
	root.AddCommand(NewCycleCommand(&w))
	root.AddCommand(NewListCommand(&w))
	root.AddCommand(NewCurrentCommand(&w))
	root.AddCommand(NewShowCommand(&w))
	root.AddCommand(NewDeleteCommand(&w))
	root.AddCommand(NewRenameCommand(&w))
	root.AddCommand(NewExportCommand(&w))
	root.AddCommand(NewImportCommand(&w))
	root.AddCommand(NewDoctorCommand(&w))
	root.AddCommand(NewMCPCommand())

	// Execute and handle errors
	if err := root.Execute(); err != nil {
		xe := normalizeErr(err)
		format := resolveFormatForError(GlobalConfig.FormatStr)
		_ = w.WriteError(format, xe)
		return int(errors.ExitCodeFor(xe.Code))
	}

	return int(errors.ExitOK)
}
