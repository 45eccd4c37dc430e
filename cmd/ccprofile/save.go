package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
)

// SaveFlags holds the flags for the save command
type SaveFlags struct {
	Token       string
	Provider    string
	APIURL      string
	Description string
	Overwrite   bool
	Active      bool
	NoActive    bool
}

// NewSaveCommand creates the save command
func NewSaveCommand(w *output.Writer) *cobra.Command {
	flags := &SaveFlags{}
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a credential as a named profile",
		Long: `Save a credential as a named profile.

Without --token the credential is taken from the environment:
zai reads ZAI_API_KEY or ZHIPUAI_API_KEY, claude uses the credential
the CLI currently has (keychain or credentials file). If nothing is
found the token is prompted for without echo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd.Context(), args[0], flags, cmd.InOrStdin(), cmd.ErrOrStderr(), w)
		},
	}
	cmd.Flags().StringVar(&flags.Token, "token", "", "Token or OAuth JSON")
	cmd.Flags().StringVar(&flags.Provider, "provider", string(credential.ProviderClaude), "Provider: claude|zai")
	cmd.Flags().StringVar(&flags.APIURL, "api-url", "", "Override the provider base URL")
	cmd.Flags().StringVar(&flags.Description, "description", "", "Profile description")
	cmd.Flags().BoolVar(&flags.Overwrite, "overwrite", false, "Replace an existing profile")
	cmd.Flags().BoolVar(&flags.Active, "active", true, "Switch to the profile after saving")
	cmd.Flags().BoolVar(&flags.NoActive, "no-active", false, "Only save; keep the current profile active")
	return cmd
}

func runSave(ctx context.Context, name string, flags *SaveFlags, in io.Reader, errOut io.Writer, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	provider, xe := credential.ParseProvider(flags.Provider)
	if xe != nil {
		return xe
	}

	m, xe := newManager(nil)
	if xe != nil {
		return xe
	}

	token := flags.Token
	if token == "" {
		token, err = resolveSaveToken(ctx, m, name, provider, in, errOut)
		if err != nil {
			return err
		}
	}

	res, xe := m.Save(ctx, app.SaveRequest{
		Name:        name,
		Token:       token,
		Provider:    provider,
		APIURL:      flags.APIURL,
		Description: flags.Description,
		Overwrite:   flags.Overwrite,
		NoActivate:  !flags.Active || flags.NoActive,
	})
	if xe != nil {
		return xe
	}
	return w.WriteOK(format, res)
}

// resolveSaveToken finds a token when --token is omitted
func resolveSaveToken(ctx context.Context, m *app.Manager, name string, provider credential.Provider, in io.Reader, errOut io.Writer) (string, error) {
	var (
		d  app.Detected
		ok bool
	)
	if provider == credential.ProviderZAI {
		d, ok = m.DetectZAIToken()
	} else {
		d, ok = m.DetectClaudeToken(ctx)
	}
	if ok {
		return d.Token, nil
	}
	token, err := promptSecret(in, errOut, "Enter token for profile '"+name+"': ")
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New(errors.CodeCancelled, "no token provided", nil)
	}
	return token, nil
}
