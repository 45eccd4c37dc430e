package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/config"
	"github.com/zx06/ccprofile/internal/output"
)

// InitFlags holds the flags for the init command
type InitFlags struct {
	Target   string
	Force    bool
	NoImport bool
}

// NewInitCommand creates the init command
func NewInitCommand(w *output.Writer) *cobra.Command {
	flags := &InitFlags{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Check keyring access, write the config file and import the current credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), flags, w)
		},
	}
	cmd.Flags().StringVar(&flags.Target, "target", "", "Active credential target: keychain|file|shell (default: keychain on macOS, file elsewhere)")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&flags.NoImport, "no-import", false, "Do not import the current credential as the default profile")
	return cmd
}

func runInit(ctx context.Context, flags *InitFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := GlobalConfig.Resolved
	cfg := r.File
	if flags.Target != "" {
		cfg.ActiveTarget.Type = flags.Target
	}
	if cfg.ActiveTarget.Type != "" {
		if _, xe := activate.ParseTarget(cfg.ActiveTarget.Type, cfg.ActiveTarget.Path); xe != nil {
			return xe
		}
	}
	if cfg.UpdateSettings == nil {
		cfg.UpdateSettings = config.Bool(true)
	}

	configPath := GlobalConfig.ConfigStr
	if configPath == "" {
		configPath = r.ConfigPath
	}
	if configPath == "" {
		configPath = config.DefaultPath(config.Options{XDGConfigHome: os.Getenv("XDG_CONFIG_HOME")})
	}

	m, xe := newManager(nil)
	if xe != nil {
		return xe
	}
	res, xe := m.Init(ctx, app.InitOptions{
		ConfigPath: configPath,
		Config:     cfg,
		Force:      flags.Force,
		AutoImport: !flags.NoImport,
	})
	if xe != nil {
		return xe
	}
	return w.WriteOK(format, res)
}
