package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/config"
	"github.com/zx06/ccprofile/internal/errors"
)

// Build-time variables (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config holds the resolved configuration
type Config struct {
	FormatStr          string
	ConfigStr          string
	CredentialsPathStr string
	Verbose            bool
	Resolved           config.Resolved
}

// GlobalConfig holds the global configuration state
var GlobalConfig = &Config{}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ccprofile",
		Short:         "Manage and switch credential profiles for the Claude CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// CLI > ENV > Config
			formatSet := cmd.Flags().Changed("format")
			credentialsSet := cmd.Flags().Changed("credentials-path")
			configSet := cmd.Flags().Changed("config")
			if configSet && GlobalConfig.ConfigStr == "" {
				return errors.New(errors.CodeCfgInvalid, "config path is empty", nil)
			}

			// init creates the config file, so a missing --config path is not an error there.
			configPath := GlobalConfig.ConfigStr
			if cmd.Name() == "init" && configPath != "" {
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					configPath = ""
				}
			}

			r, xe := config.Resolve(config.Options{
				ConfigPath:            configPath,
				CLIFormat:             GlobalConfig.FormatStr,
				CLIFormatSet:          formatSet,
				CLICredentialsPath:    GlobalConfig.CredentialsPathStr,
				CLICredentialsPathSet: credentialsSet,
				EnvFormat:             os.Getenv("CCPROFILE_FORMAT"),
				EnvCredentialsPath:    os.Getenv("CCPROFILE_CREDENTIALS_PATH"),
				EnvSettingsPath:       os.Getenv("CCPROFILE_SETTINGS_PATH"),
				XDGConfigHome:         os.Getenv("XDG_CONFIG_HOME"),
			})
			if xe != nil {
				return xe
			}
			GlobalConfig.Resolved = r
			GlobalConfig.FormatStr = r.Format
			return nil
		},
	}

	root.PersistentFlags().StringVar(&GlobalConfig.ConfigStr, "config", "", "Config file path (YAML); default: $XDG_CONFIG_HOME/ccprofile/config.yaml or $HOME/.config/ccprofile/config.yaml")
	root.PersistentFlags().StringVarP(&GlobalConfig.FormatStr, "format", "f", "auto", "Output format: json|yaml|table|csv|auto")
	root.PersistentFlags().StringVar(&GlobalConfig.CredentialsPathStr, "credentials-path", "", "Write the active credential to this file instead of the configured target")
	root.PersistentFlags().BoolVarP(&GlobalConfig.Verbose, "verbose", "v", false, "Debug logging on stderr")

	return root
}
