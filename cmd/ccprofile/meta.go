package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/output"
)

// NewSpecCommand creates the spec command
func NewSpecCommand(a *app.App, w *output.Writer) *cobra.Command {
	return newInfoCommand("spec", "Export tool spec (commands, flags, error codes) for AI/agents", w,
		func() any { return a.BuildSpec() })
}

// NewVersionCommand creates the version command
func NewVersionCommand(a *app.App, w *output.Writer) *cobra.Command {
	return newInfoCommand("version", "Print version information", w,
		func() any { return a.VersionInfo() })
}

// newInfoCommand builds a read-only command that prints a single value and touches no profile state.
func newInfoCommand(use, short string, w *output.Writer, data func() any) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			return w.WriteOK(format, data())
		},
	}
}
