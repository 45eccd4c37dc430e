package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/log"
	"github.com/zx06/ccprofile/internal/output"
)

// parseOutputFormat parses and validates the output format string
func parseOutputFormat(s string) (output.Format, error) {
	f, xe := output.Parse(s)
	if xe != nil {
		return "", xe
	}
	return f.Resolve(stdoutIsTTY()), nil
}

// resolveFormatForError resolves the format for error output
func resolveFormatForError(s string) output.Format {
	f, xe := output.Parse(s)
	if xe != nil {
		f = output.FormatAuto
	}
	return f.Resolve(stdoutIsTTY())
}

func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// normalizeErr normalizes any error to XError
func normalizeErr(err error) *errors.XError {
	if xe, ok := errors.As(err); ok {
		return xe
	}
	// Preserve original error message
	return errors.Wrap(errors.CodeInternal, err.Error(), nil, err)
}

// newManager builds the profile manager from the resolved configuration.
// A non-empty targetOverride replaces the configured active target.
func newManager(targetOverride *activate.Target) (*app.Manager, *errors.XError) {
	r := GlobalConfig.Resolved
	target, xe := activate.ParseTarget(r.TargetType, r.TargetPath)
	if xe != nil {
		return nil, xe
	}
	if targetOverride != nil {
		target = *targetOverride
	}
	return app.NewManager(app.ManagerOptions{
		ConfigDir:      r.ConfigDir,
		Target:         target,
		SettingsPath:   activate.ExpandHome(r.SettingsPath),
		UpdateSettings: r.UpdateSettings,
		Logger:         log.New(os.Stderr, GlobalConfig.Verbose),
		Getenv:         os.Getenv,
	}), nil
}

// stdinIsTerminal reports whether r is an interactive terminal
func stdinIsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readLine reads a single line from r one byte at a time, so successive
// prompts can share the same reader. io.EOF before any input is a cancellation.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return strings.TrimSpace(sb.String()), nil
			}
			sb.WriteByte(buf[0])
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			if sb.Len() > 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			return "", errors.New(errors.CodeCancelled, "input cancelled", nil)
		}
		return "", errors.Wrap(errors.CodeInternal, "failed to read input", nil, err)
	}
}

// promptSecret prints label on stderr and reads a value without echo when in is a terminal
func promptSecret(in io.Reader, errOut io.Writer, label string) (string, error) {
	fmt.Fprint(errOut, label)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", errors.Wrap(errors.CodeInternal, "failed to read input", nil, err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(in)
}

// promptConfirm asks a yes/no question; only "y" or "yes" confirm
func promptConfirm(in io.Reader, errOut io.Writer, question string) (bool, error) {
	fmt.Fprintf(errOut, "%s [y/N]: ", question)
	answer, err := readLine(in)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// promptChoice prints a numbered list on stderr and returns the chosen entry.
// An empty answer selects def when def is one of the choices.
func promptChoice(in io.Reader, errOut io.Writer, title string, choices []string, def string) (string, error) {
	fmt.Fprintln(errOut, title)
	defIdx := 0
	for i, c := range choices {
		mark := " "
		if c == def {
			mark = "*"
			defIdx = i + 1
		}
		fmt.Fprintf(errOut, "%s %d) %s\n", mark, i+1, c)
	}
	if defIdx > 0 {
		fmt.Fprintf(errOut, "Select [1-%d] (default %d): ", len(choices), defIdx)
	} else {
		fmt.Fprintf(errOut, "Select [1-%d]: ", len(choices))
	}

	answer, err := readLine(in)
	if err != nil {
		return "", err
	}
	if answer == "" {
		if defIdx > 0 {
			return def, nil
		}
		return "", errors.New(errors.CodeCancelled, "no profile selected", nil)
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(choices) {
		return "", errors.New(errors.CodeCfgInvalid, "invalid selection", map[string]any{"input": answer})
	}
	return choices[n-1], nil
}
