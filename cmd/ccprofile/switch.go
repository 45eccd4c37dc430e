package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
)

// SwitchFlags holds the flags for the switch command
type SwitchFlags struct {
	Eval bool
}

// NewSwitchCommand creates the switch command
func NewSwitchCommand(w *output.Writer) *cobra.Command {
	flags := &SwitchFlags{}
	cmd := &cobra.Command{
		Use:   "switch [name]",
		Short: "Activate a profile",
		Long: `Activate a profile by writing its credential to the active target.

Without a name the profiles are listed on stderr and one is read from stdin.
With --eval nothing is written; export statements are printed instead:

  eval "$(ccprofile switch work --eval)"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runSwitch(cmd.Context(), name, flags, cmd.InOrStdin(), cmd.ErrOrStderr(), w)
		},
	}
	cmd.Flags().BoolVar(&flags.Eval, "eval", false, "Print shell export statements instead of writing the credential")
	return cmd
}

func runSwitch(ctx context.Context, name string, flags *SwitchFlags, in io.Reader, errOut io.Writer, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var override *activate.Target
	if flags.Eval {
		shell := activate.Shell()
		override = &shell
	}
	m, xe := newManager(override)
	if xe != nil {
		return xe
	}

	if name == "" {
		name, err = selectProfile(m, in, errOut)
		if err != nil {
			return err
		}
	}

	res, xe := m.Switch(ctx, name)
	if xe != nil {
		return xe
	}
	return writeSwitchResult(format, res, m.Target(), errOut, w)
}

// selectProfile asks the user to pick a profile by number
func selectProfile(m *app.Manager, in io.Reader, errOut io.Writer) (string, error) {
	names, xe := m.Registry().Names()
	if xe != nil {
		return "", xe
	}
	if len(names) == 0 {
		return "", errors.New(errors.CodeProfileNotFound, "no profiles saved; run 'ccprofile save <name>' first", nil)
	}
	def := GlobalConfig.Resolved.DefaultProfile
	if !stdinIsTerminal(in) && def != "" {
		return def, nil
	}
	return promptChoice(in, errOut, "Select a profile:", names, def)
}

// writeSwitchResult prints raw export statements for the shell target, the envelope otherwise
func writeSwitchResult(format output.Format, res *app.SwitchResult, target activate.Target, errOut io.Writer, w *output.Writer) error {
	if res.Activation == nil {
		return w.WriteOK(format, res)
	}
	if target.Kind == activate.KindShell {
		for _, warning := range res.Activation.Warnings {
			fmt.Fprintf(errOut, "warning: %s\n", warning)
		}
		_, err := fmt.Fprintln(w.Out, strings.Join(res.Activation.Exports, "\n"))
		return err
	}
	return w.Write(format, output.Success(res, res.Activation.Warnings...))
}

// NewCycleCommand creates the cycle command
func NewCycleCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Switch to the next profile in list order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			m, xe := newManager(nil)
			if xe != nil {
				return xe
			}
			res, xe := m.Cycle(cmd.Context())
			if xe != nil {
				return xe
			}
			return writeSwitchResult(format, res, m.Target(), cmd.ErrOrStderr(), w)
		},
	}
}
