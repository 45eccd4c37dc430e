package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/app"
	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/secret"
)

const (
	devToken  = "sk-ant-REDACTED"
	prodToken = "zzzzzzzzzzzzzzzzzzzzzzzz"
)

func newTestManager(t *testing.T) *app.Manager {
	t.Helper()
	secret.MockInit()
	dir := t.TempDir()
	return app.NewManager(app.ManagerOptions{
		Keyring:        secret.Default(),
		ConfigDir:      dir,
		Target:         activate.File(filepath.Join(dir, ".credentials.json")),
		SettingsPath:   filepath.Join(dir, "settings.json"),
		UpdateSettings: true,
		GOOS:           "linux",
		HomeDir:        dir,
	})
}

func newSeededHandler(t *testing.T) *ToolHandler {
	t.Helper()
	m := newTestManager(t)
	ctx := context.Background()
	if _, xe := m.Save(ctx, app.SaveRequest{Name: "dev", Token: devToken, Description: "Dev account", NoActivate: true}); xe != nil {
		t.Fatal(xe)
	}
	if _, xe := m.Save(ctx, app.SaveRequest{Name: "prod", Token: prodToken, Provider: credential.ProviderZAI}); xe != nil {
		t.Fatal(xe)
	}
	return NewToolHandler(m)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type=%T", result.Content[0])
	}
	return tc.Text
}

func TestCreateServer(t *testing.T) {
	server, err := CreateServer("test", newTestManager(t))
	if err != nil {
		t.Fatalf("CreateServer failed: %v", err)
	}
	if server == nil {
		t.Fatal("server is nil")
	}

	if _, err := CreateServer("test", nil); err == nil {
		t.Fatal("expected error for nil manager")
	}
}

func TestGetProfileNames(t *testing.T) {
	h := newSeededHandler(t)
	names := h.getProfileNames()
	if strings.Join(names, ",") != "dev,prod" {
		t.Fatalf("names=%v", names)
	}
}

func TestProfileList(t *testing.T) {
	h := newSeededHandler(t)

	result, _, err := h.ProfileList(context.Background(), &mcp.CallToolRequest{}, ProfileListInput{})
	if err != nil {
		t.Fatalf("ProfileList failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}

	var out struct {
		OK   bool `json:"ok"`
		Data struct {
			Profiles []struct {
				Name   string `json:"name"`
				Token  string `json:"token"`
				Active bool   `json:"active"`
			} `json:"profiles"`
			Active string `json:"active"`
		} `json:"data"`
	}
	text := resultText(t, result)
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !out.OK || len(out.Data.Profiles) != 2 || out.Data.Active != "prod" {
		t.Fatalf("out=%+v", out)
	}
	if strings.Contains(text, devToken) || strings.Contains(text, prodToken) {
		t.Fatalf("tokens must be masked: %s", text)
	}

	result, _, _ = h.ProfileList(context.Background(), &mcp.CallToolRequest{}, ProfileListInput{ActiveOnly: true})
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Data.Profiles) != 1 || out.Data.Profiles[0].Name != "prod" {
		t.Fatalf("active only=%+v", out.Data.Profiles)
	}
}

func TestProfileShow(t *testing.T) {
	h := newSeededHandler(t)

	result, _, err := h.ProfileShow(context.Background(), &mcp.CallToolRequest{}, ProfileShowInput{Name: "dev"})
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "Dev account") || strings.Contains(text, devToken) {
		t.Fatalf("text=%s", text)
	}
}

func TestProfileShow_ProfileNotFound(t *testing.T) {
	h := newSeededHandler(t)

	result, _, err := h.ProfileShow(context.Background(), &mcp.CallToolRequest{}, ProfileShowInput{Name: "nonexistent"})
	if err != nil {
		t.Fatalf("ProfileShow failed: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error for non-existent profile")
	}
	if !strings.Contains(resultText(t, result), string(errors.CodeProfileNotFound)) {
		t.Fatalf("text=%s", resultText(t, result))
	}

	result, _, _ = h.ProfileShow(context.Background(), &mcp.CallToolRequest{}, ProfileShowInput{})
	if !result.IsError {
		t.Fatal("expected error for empty name")
	}
}

func TestProfileShowHandler_InvalidArguments(t *testing.T) {
	h := newSeededHandler(t)
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{"name":`)}}

	result, err := h.profileShowHandler(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), string(errors.CodeCfgInvalid)) {
		t.Fatalf("result=%s", resultText(t, result))
	}
}

func TestProfileCurrent(t *testing.T) {
	h := newSeededHandler(t)

	result, _, err := h.ProfileCurrent(context.Background(), &mcp.CallToolRequest{}, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Data struct {
			Provider string `json:"provider"`
			Profile  string `json:"profile"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Data.Profile != "prod" || out.Data.Provider != string(credential.ProviderZAI) {
		t.Fatalf("out=%+v", out)
	}
}

func TestFormatError_WithXError(t *testing.T) {
	h := NewToolHandler(nil)

	err := errors.New(errors.CodeCfgInvalid, "test error", map[string]any{"key": "value"})
	result := h.formatError(err)

	if !strings.Contains(result, "CFG_INVALID") {
		t.Errorf("expected error code in output, got: %s", result)
	}
	if !strings.Contains(result, "test error") {
		t.Errorf("expected error message in output, got: %s", result)
	}
	if !strings.Contains(result, "key") || !strings.Contains(result, "value") {
		t.Errorf("expected error details in output, got: %s", result)
	}
	if !strings.Contains(result, `"exit_code": 2`) {
		t.Errorf("expected config exit code in output, got: %s", result)
	}
}

func TestFormatError_WithGenericError(t *testing.T) {
	h := NewToolHandler(nil)

	result := h.formatError(&customError{msg: "something went wrong"})

	if !strings.Contains(result, `"ok": false`) {
		t.Error("expected ok: false in error output")
	}
	if !strings.Contains(result, "something went wrong") {
		t.Error("expected error message in output")
	}
	if h.formatError(nil) == "" {
		t.Error("expected non-empty output for nil error")
	}
}

// customError is a simple error type for testing non-XError errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestRegisterTools(t *testing.T) {
	h := newSeededHandler(t)
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "test",
		Version: "1.0.0",
	}, nil)

	// Register tools should not panic
	h.RegisterTools(server)
}
