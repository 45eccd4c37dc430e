package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zx06/ccprofile/internal/config"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/output"
	"github.com/zx06/ccprofile/internal/secret"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func strPtr(s string) *string { return &s }

func TestStreamableHTTPAuthRequired(t *testing.T) {
	server, err := CreateServer("test", newTestManager(t))
	if err != nil {
		t.Fatalf("CreateServer error: %v", err)
	}
	handler, xe := NewStreamableHTTPHandler(server, "secret-token")
	if xe != nil {
		t.Fatalf("NewStreamableHTTPHandler error: %v", xe)
	}

	ts := httptest.NewServer(handler)
	defer ts.Close()

	cases := []struct {
		name             string
		authHeader       string
		wantUnauthorized bool
	}{
		{name: "missing", authHeader: "", wantUnauthorized: true},
		{name: "wrong-scheme", authHeader: "Token secret-token", wantUnauthorized: true},
		{name: "wrong-token", authHeader: "Bearer bad-token", wantUnauthorized: true},
		{name: "ok", authHeader: "Bearer secret-token", wantUnauthorized: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader("{}"))
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			req.Header.Set("Accept", "application/json, text/event-stream")
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("http request error: %v", err)
			}
			defer resp.Body.Close()
			if !tc.wantUnauthorized {
				if resp.StatusCode == http.StatusUnauthorized {
					t.Fatalf("expected non-unauthorized status, got %d", resp.StatusCode)
				}
				return
			}
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected unauthorized, got %d", resp.StatusCode)
			}
			if got := resp.Header.Get("WWW-Authenticate"); got != `Bearer realm="ccprofile"` {
				t.Fatalf("WWW-Authenticate=%q", got)
			}
			var env output.Envelope
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if env.OK || env.Error == nil || env.Error.Code != errors.CodeMCPUnauthorized {
				t.Fatalf("envelope=%+v", env)
			}
			if env.Error.ExitCode != int(errors.ExitConfig) {
				t.Fatalf("exit_code=%d", env.Error.ExitCode)
			}
		})
	}
}

func TestNewStreamableHTTPHandler_Validation(t *testing.T) {
	_, xe := NewStreamableHTTPHandler(nil, "token")
	if xe == nil || xe.Code != errors.CodeInternal {
		t.Fatalf("expected CodeInternal for nil server, got %v", xe)
	}

	server, err := CreateServer("test", newTestManager(t))
	if err != nil {
		t.Fatalf("CreateServer error: %v", err)
	}
	_, xe = NewStreamableHTTPHandler(server, "")
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected CodeCfgInvalid for empty token, got %v", xe)
	}
}

func TestResolveServeOptions_Defaults(t *testing.T) {
	opts, xe := ResolveServeOptions(Overrides{}, envMap(nil), config.MCPConfig{}, nil)
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if opts.Transport != TransportStdio || opts.HTTPAddr != DefaultHTTPAddr {
		t.Fatalf("opts=%+v", opts)
	}
}

func TestResolveServeOptions_StreamableHTTPEnv(t *testing.T) {
	env := envMap(map[string]string{
		"CCPROFILE_MCP_TRANSPORT":       "streamable_http",
		"CCPROFILE_MCP_HTTP_AUTH_TOKEN": "env-token",
	})
	opts, xe := ResolveServeOptions(Overrides{}, env, config.MCPConfig{}, nil)
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if opts.Transport != TransportStreamableHTTP || opts.AuthToken != "env-token" {
		t.Fatalf("opts=%+v", opts)
	}
}

func TestResolveServeOptions_ConfigToken(t *testing.T) {
	cfg := config.MCPConfig{
		Transport: "streamable_http",
		HTTP:      config.MCPHTTPConfig{Addr: "127.0.0.1:9999", AuthToken: "config-token"},
	}
	_, xe := ResolveServeOptions(Overrides{}, envMap(nil), cfg, nil)
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("plaintext token without allow: err=%v", xe)
	}

	allow := true
	opts, xe := ResolveServeOptions(Overrides{AllowPlaintext: &allow}, envMap(nil), cfg, nil)
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if opts.HTTPAddr != "127.0.0.1:9999" || opts.AuthToken != "config-token" {
		t.Fatalf("opts=%+v", opts)
	}

	env := envMap(map[string]string{"CCPROFILE_MCP_HTTP_ALLOW_PLAINTEXT_TOKEN": "true"})
	if _, xe := ResolveServeOptions(Overrides{}, env, cfg, nil); xe != nil {
		t.Fatalf("env allow should accept plaintext: %v", xe)
	}
}

func TestResolveServeOptions_KeyringToken(t *testing.T) {
	secret.MockInit()
	kr := secret.Default()
	if err := kr.Set(secret.ServiceName, "mcp/http_token", "from-keyring"); err != nil {
		t.Fatal(err)
	}
	cfg := config.MCPConfig{
		Transport: "streamable_http",
		HTTP:      config.MCPHTTPConfig{AuthToken: "keyring:mcp/http_token"},
	}
	opts, xe := ResolveServeOptions(Overrides{}, envMap(nil), cfg, kr)
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if opts.AuthToken != "from-keyring" {
		t.Fatalf("token=%q", opts.AuthToken)
	}
}

func TestResolveServeOptions_InvalidTransport(t *testing.T) {
	_, xe := ResolveServeOptions(Overrides{}, envMap(nil), config.MCPConfig{Transport: "bad"}, nil)
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected CodeCfgInvalid, got %v", xe)
	}
}

func TestResolveServeOptions_MissingToken(t *testing.T) {
	env := envMap(map[string]string{"CCPROFILE_MCP_TRANSPORT": "streamable_http"})
	if _, xe := ResolveServeOptions(Overrides{}, env, config.MCPConfig{}, nil); xe == nil {
		t.Fatal("expected error for missing auth token")
	}
}

func TestResolveServeOptions_FlagsOverrideEnvAndConfig(t *testing.T) {
	env := envMap(map[string]string{
		"CCPROFILE_MCP_TRANSPORT":       "streamable_http",
		"CCPROFILE_MCP_HTTP_AUTH_TOKEN": "env-token",
	})
	cfg := config.MCPConfig{
		Transport: "streamable_http",
		HTTP: config.MCPHTTPConfig{
			Addr:                "127.0.0.1:7000",
			AuthToken:           "config-token",
			AllowPlaintextToken: true,
		},
	}
	o := Overrides{
		Transport: strPtr("stdio"),
		HTTPAddr:  strPtr("127.0.0.1:6000"),
		AuthToken: strPtr("cli-token"),
	}
	opts, xe := ResolveServeOptions(o, env, cfg, nil)
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if opts.Transport != "stdio" || opts.HTTPAddr != "127.0.0.1:6000" || opts.AuthToken != "cli-token" {
		t.Fatalf("opts=%+v", opts)
	}
}

func TestServe_HTTPStopsOnCancel(t *testing.T) {
	server, err := CreateServer("test", newTestManager(t))
	if err != nil {
		t.Fatalf("CreateServer error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *errors.XError, 1)
	go func() {
		done <- Serve(ctx, server, ServeOptions{
			Transport: TransportStreamableHTTP,
			HTTPAddr:  "127.0.0.1:0",
			AuthToken: "secret-token",
		}, nil)
	}()
	cancel()

	select {
	case xe := <-done:
		if xe != nil {
			t.Fatalf("expected clean shutdown, got %v", xe)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_RejectsUnknownTransport(t *testing.T) {
	server, err := CreateServer("test", newTestManager(t))
	if err != nil {
		t.Fatalf("CreateServer error: %v", err)
	}
	xe := Serve(context.Background(), server, ServeOptions{Transport: "grpc"}, nil)
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected CodeCfgInvalid, got %v", xe)
	}
}
