package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
)

// NewDeleteCommand creates the delete command
func NewDeleteCommand(w *output.Writer) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			m, xe := newManager(nil)
			if xe != nil {
				return xe
			}
			if exists, xe := m.Registry().Exists(name); xe != nil {
				return xe
			} else if !exists {
				return errors.New(errors.CodeProfileNotFound, "profile not found", map[string]any{"profile": name})
			}

			// Confirm only on an interactive terminal; scripts pass through.
			if !yes && stdinIsTerminal(cmd.InOrStdin()) {
				ok, err := promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Delete profile '"+name+"'?")
				if err != nil {
					return err
				}
				if !ok {
					return errors.New(errors.CodeCancelled, "delete cancelled", map[string]any{"profile": name})
				}
			}
			if xe := m.Delete(name); xe != nil {
				return xe
			}
			return w.WriteOK(format, map[string]any{"deleted": name})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

// NewRenameCommand creates the rename command
func NewRenameCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <old> <new>",
		Aliases: []string{"mv"},
		Short:   "Rename a profile",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			m, xe := newManager(nil)
			if xe != nil {
				return xe
			}
			if xe := m.Rename(args[0], args[1]); xe != nil {
				return xe
			}
			return w.WriteOK(format, map[string]any{"from": args[0], "to": args[1]})
		},
	}
}
