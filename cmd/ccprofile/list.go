package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/output"
)

// ListFlags holds the flags for the list command
type ListFlags struct {
	ShowTokens bool
	ActiveOnly bool
}

// NewListCommand creates the list command
func NewListCommand(w *output.Writer) *cobra.Command {
	flags := &ListFlags{}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			m, xe := newManager(nil)
			if xe != nil {
				return xe
			}
			list, xe := m.List(cmd.Context(), app.ListOptions{
				ShowTokens: flags.ShowTokens || !GlobalConfig.Resolved.MaskTokens,
				ActiveOnly: flags.ActiveOnly,
			})
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, list)
		},
	}
	cmd.Flags().BoolVar(&flags.ShowTokens, "show-tokens", false, "Print unmasked tokens")
	cmd.Flags().BoolVar(&flags.ActiveOnly, "active-only", false, "Only the active profile")
	return cmd
}

// NewCurrentCommand creates the current command
func NewCurrentCommand(w *output.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active provider and profile",
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
			info, xe := m.Current(cmd.Context())
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, info)
		},
	}
}

// NewShowCommand creates the show command
func NewShowCommand(w *output.Writer) *cobra.Command {
	var showToken bool
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show profile details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(GlobalConfig.FormatStr)
			if err != nil {
				return err
			}
			m, xe := newManager(nil)
			if xe != nil {
				return xe
			}
			v, xe := m.Show(cmd.Context(), args[0], showToken || !GlobalConfig.Resolved.MaskTokens)
			if xe != nil {
				return xe
			}
			return w.WriteOK(format, v)
		},
	}
	cmd.Flags().BoolVar(&showToken, "show-token", false, "Print the unmasked token")
	return cmd
}
