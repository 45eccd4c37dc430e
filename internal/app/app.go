package app

import (
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
	"github.com/zx06/ccprofile/internal/spec"
)

type App struct {
	Version string
	Commit  string
	Date    string
}

func New(version, commit, date string) App {
	return App{Version: version, Commit: commit, Date: date}
}

func (a App) BuildSpec() spec.Spec {
	globalFlags := []spec.FlagSpec{
		{Name: "config", Default: "", Description: "Config file path (YAML); default: $XDG_CONFIG_HOME/ccprofile/config.yaml or $HOME/.config/ccprofile/config.yaml"},
		{Name: "format", Shorthand: "f", Env: "CCPROFILE_FORMAT", Default: "auto", Description: "Output format: json|yaml|table|csv|auto"},
		{Name: "credentials-path", Env: "CCPROFILE_CREDENTIALS_PATH", Default: "", Description: "Write the active credential to this file instead of the default target"},
		{Name: "verbose", Shorthand: "v", Default: "false", Description: "Debug logging on stderr"},
	}
	with := func(extra ...spec.FlagSpec) []spec.FlagSpec {
		out := append([]spec.FlagSpec{}, globalFlags...)
		return append(out, extra...)
	}
	return spec.Spec{
		SchemaVersion: output.SchemaVersion,
		Commands: []spec.CommandSpec{
			{Name: "spec", Description: "Export tool spec for AI/agents", Flags: globalFlags},
			{Name: "version", Description: "Print version information", Flags: globalFlags},
			{
				Name:        "init",
				Description: "Check keyring access, write the config file and import the current credential",
				Flags: with(
					spec.FlagSpec{Name: "target", Default: "", Description: "Active credential target: keychain|file|shell"},
					spec.FlagSpec{Name: "force", Default: "false", Description: "Overwrite an existing config file"},
					spec.FlagSpec{Name: "no-import", Default: "false", Description: "Do not import the current credential"},
				),
			},
			{
				Name:        "save",
				Args:        "<name>",
				Description: "Save a credential as a named profile",
				Flags: with(
					spec.FlagSpec{Name: "token", Default: "", Description: "Token or OAuth JSON; read from environment or prompt when omitted"},
					spec.FlagSpec{Name: "provider", Default: "claude", Description: "Provider: claude|zai"},
					spec.FlagSpec{Name: "api-url", Default: "", Description: "Override the provider base URL"},
					spec.FlagSpec{Name: "description", Default: "", Description: "Profile description"},
					spec.FlagSpec{Name: "overwrite", Default: "false", Description: "Replace an existing profile"},
					spec.FlagSpec{Name: "active", Default: "true", Description: "Switch to the profile after saving"},
					spec.FlagSpec{Name: "no-active", Default: "false", Description: "Only save; keep the current profile active"},
				),
			},
			{
				Name:        "switch",
				Args:        "[name]",
				Description: "Activate a profile; prompts for a choice when name is omitted",
				Flags: with(
					spec.FlagSpec{Name: "eval", Default: "false", Description: "Print shell export statements instead of writing the credential"},
				),
			},
			{
				Name:        "list",
				Description: "List profiles",
				Flags: with(
					spec.FlagSpec{Name: "show-tokens", Default: "false", Description: "Print unmasked tokens"},
					spec.FlagSpec{Name: "active-only", Default: "false", Description: "Only the active profile"},
				),
			},
			{Name: "current", Description: "Show the active provider and profile", Flags: globalFlags},
			{Name: "cycle", Description: "Switch to the next profile", Flags: globalFlags},
			{Name: "delete", Args: "<name>", Description: "Delete a profile", Flags: with(spec.FlagSpec{Name: "yes", Shorthand: "y", Default: "false", Description: "Skip confirmation"})},
			{Name: "rename", Args: "<old> <new>", Description: "Rename a profile", Flags: globalFlags},
			{
				Name:        "show",
				Args:        "<name>",
				Description: "Show a profile",
				Flags:       with(spec.FlagSpec{Name: "show-token", Default: "false", Description: "Print the unmasked token"}),
			},
			{
				Name:        "export",
				Args:        "[file]",
				Description: "Export profiles to JSON or YAML",
				Flags: with(
					spec.FlagSpec{Name: "include-tokens", Default: "false", Description: "Include unmasked tokens"},
					spec.FlagSpec{Name: "export-format", Default: "json", Description: "Export file format: json|yaml"},
				),
			},
			{
				Name:        "import",
				Args:        "<file>",
				Description: "Import profiles from an export file",
				Flags: with(
					spec.FlagSpec{Name: "prefix", Default: "", Description: "Prefix for imported profile names"},
					spec.FlagSpec{Name: "replace", Default: "false", Description: "Replace existing profiles"},
				),
			},
			{Name: "doctor", Description: "Diagnose keyring, files and settings", Flags: with(spec.FlagSpec{Name: "fix", Default: "false", Description: "Repair file permissions and the profile index"})},
			{
				Name:        "mcp server",
				Description: "Serve read-only profile tools over MCP",
				Flags: with(
					spec.FlagSpec{Name: "transport", Env: "CCPROFILE_MCP_TRANSPORT", Default: "stdio", Description: "stdio|streamable_http"},
					spec.FlagSpec{Name: "http-addr", Env: "CCPROFILE_MCP_HTTP_ADDR", Default: "127.0.0.1:8787", Description: "Listen address for streamable_http"},
					spec.FlagSpec{Name: "http-auth-token", Env: "CCPROFILE_MCP_HTTP_AUTH_TOKEN", Default: "", Description: "Bearer token (plaintext or keyring:<account>)"},
					spec.FlagSpec{Name: "http-allow-plaintext-token", Env: "CCPROFILE_MCP_HTTP_ALLOW_PLAINTEXT_TOKEN", Default: "false", Description: "Allow a plaintext bearer token"},
				),
			},
		},
		ErrorCodes: errors.AllCodes(),
		ExitCodes: []spec.ExitCode{
			{Code: int(errors.ExitOK), Description: "success"},
			{Code: int(errors.ExitConfig), Description: "invalid arguments, config or token"},
			{Code: int(errors.ExitProfile), Description: "profile not found or already exists"},
			{Code: int(errors.ExitStorage), Description: "keyring, filesystem or lock failure"},
			{Code: int(errors.ExitExternal), Description: "external tool (keychain) failure"},
			{Code: int(errors.ExitCancelled), Description: "cancelled by user"},
			{Code: int(errors.ExitInternal), Description: "internal error"},
		},
	}
}

type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
}

func (a App) VersionInfo() VersionInfo {
	return VersionInfo{Version: a.Version, Commit: a.Commit, Date: a.Date}
}
