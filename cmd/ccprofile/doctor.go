package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/output"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(w *output.Writer) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose keyring access, credential files and settings",
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
			return w.WriteOK(format, m.Doctor(cmd.Context(), fix))
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Fix credential file permissions and remove missing profiles from the index")
	return cmd
}
