package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/atomicfile"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
	"github.com/zx06/ccprofile/internal/profile"
)

// ExportFlags holds the flags for the export command
type ExportFlags struct {
	IncludeTokens bool
	Format        string
}

// NewExportCommand creates the export command
func NewExportCommand(w *output.Writer) *cobra.Command {
	flags := &ExportFlags{}
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export profiles to JSON or YAML",
		Long: `Export profiles to JSON or YAML. Tokens are masked unless --include-tokens is set.

Without a file the document is printed to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runExport(path, flags, w)
		},
	}
	cmd.Flags().BoolVar(&flags.IncludeTokens, "include-tokens", false, "Include unmasked tokens")
	cmd.Flags().StringVar(&flags.Format, "export-format", "json", "Export file format: json|yaml")
	return cmd
}

func runExport(path string, flags *ExportFlags, w *output.Writer) error {
	if !output.Format(flags.Format).IsDocument() {
		return errors.New(errors.CodeCfgInvalid, "invalid export format; use json or yaml", map[string]any{"format": flags.Format})
	}
	m, xe := newManager(nil)
	if xe != nil {
		return xe
	}
	doc, xe := m.Export(flags.IncludeTokens)
	if xe != nil {
		return xe
	}
	data, err := doc.Encode(flags.Format)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode export", nil, err)
	}

	if path == "" {
		_, err := w.Out.Write(data)
		return err
	}

	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	path = activate.ExpandHome(path)
	if err := atomicfile.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to write export file", map[string]any{"path": path}, err)
	}
	return w.WriteOK(format, map[string]any{
		"path":           path,
		"profiles":       len(doc),
		"include_tokens": flags.IncludeTokens,
	})
}

// ImportFlags holds the flags for the import command
type ImportFlags struct {
	Prefix  string
	Replace bool
}

// NewImportCommand creates the import command
func NewImportCommand(w *output.Writer) *cobra.Command {
	flags := &ImportFlags{}
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import profiles from an export file",
		Long: `Import profiles from a JSON or YAML export file.

Every token is validated again. Masked, missing or invalid tokens are
prompted for on an interactive terminal and skipped otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0], flags, cmd.InOrStdin(), cmd.ErrOrStderr(), w)
		},
	}
	cmd.Flags().StringVar(&flags.Prefix, "prefix", "", "Prefix for imported profile names")
	cmd.Flags().BoolVar(&flags.Replace, "replace", false, "Replace existing profiles")
	return cmd
}

func runImport(path string, flags *ImportFlags, in io.Reader, errOut io.Writer, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	path = activate.ExpandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.CodeCfgNotFound, "import file not found", map[string]any{"path": path})
		}
		return errors.Wrap(errors.CodeStorageFailed, "failed to read import file", map[string]any{"path": path}, err)
	}
	doc, xe := profile.ParseImport(data)
	if xe != nil {
		return xe
	}

	m, xe := newManager(nil)
	if xe != nil {
		return xe
	}
	opts := profile.ImportOptions{Prefix: flags.Prefix, Replace: flags.Replace}
	if stdinIsTerminal(in) {
		opts.Prompt = func(name, reason string) (string, error) {
			label := fmt.Sprintf("Token for '%s' is %s; enter a token (empty to skip): ", name, reason)
			return promptSecret(in, errOut, label)
		}
	}
	res, xe := m.Import(doc, opts)
	if xe != nil {
		return xe
	}
	return w.WriteOK(format, res)
}
