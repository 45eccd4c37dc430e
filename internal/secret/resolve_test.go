package secret

import (
	"testing"

	"github.com/zx06/ccprofile/internal/errors"
)

// mockKeyring 模拟 keyring 实现，用于单元测试
type mockKeyring struct {
	data map[string]map[string]string // service -> account -> value
}

func newMockKeyring() *mockKeyring {
	return &mockKeyring{data: make(map[string]map[string]string)}
}

func (m *mockKeyring) set(service, account, value string) {
	if m.data[service] == nil {
		m.data[service] = make(map[string]string)
	}
	m.data[service][account] = value
}

func (m *mockKeyring) Get(service, account string) (string, error) {
	if svc, ok := m.data[service]; ok {
		if v, ok := svc[account]; ok {
			return v, nil
		}
	}
	return "", ErrNotFound
}

func (m *mockKeyring) Set(service, account, value string) error {
	m.set(service, account, value)
	return nil
}

func (m *mockKeyring) Delete(service, account string) error {
	if svc, ok := m.data[service]; ok {
		if _, ok := svc[account]; ok {
			delete(svc, account)
			return nil
		}
	}
	return ErrNotFound
}

// =============================================================================
// parseKeyringRef 单元测试
// =============================================================================

func TestParseKeyringRef(t *testing.T) {
	tests := []struct {
		name        string
		ref         string
		wantAccount string
		wantErr     bool
	}{
		{name: "simple account", ref: "token", wantAccount: "token"},
		{name: "account with path", ref: "mcp/http_token", wantAccount: "mcp/http_token"},
		{name: "surrounding spaces", ref: "  mcp/token ", wantAccount: "mcp/token"},
		{name: "empty ref", ref: "", wantErr: true},
		{name: "blank ref", ref: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, account, err := parseKeyringRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseKeyringRef(%q) expected error, got nil", tt.ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseKeyringRef(%q) unexpected error: %v", tt.ref, err)
			}
			if service != ServiceName {
				t.Errorf("service = %q, want %q", service, ServiceName)
			}
			if account != tt.wantAccount {
				t.Errorf("account = %q, want %q", account, tt.wantAccount)
			}
		})
	}
}

func TestResolve_KeyringRef(t *testing.T) {
	kr := newMockKeyring()
	kr.set(ServiceName, "mcp/http_token", "secret123")

	val, xe := Resolve("keyring:mcp/http_token", Options{Keyring: kr})
	if xe != nil {
		t.Fatalf("unexpected err: %v", xe)
	}
	if val != "secret123" {
		t.Fatalf("val=%q, want %q", val, "secret123")
	}
}

func TestResolve_KeyringNotFound(t *testing.T) {
	kr := newMockKeyring()
	_, xe := Resolve("keyring:no_such", Options{Keyring: kr})
	if xe == nil || xe.Code != errors.CodeSecretNotFound {
		t.Fatalf("expected CCP_SECRET_NOT_FOUND, got %v", xe)
	}
}

func TestResolve_KeyringInvalidFormat(t *testing.T) {
	_, xe := Resolve("keyring:", Options{Keyring: newMockKeyring()})
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected CCP_CFG_INVALID, got %v", xe)
	}
}

func TestResolve_PlaintextAllowed(t *testing.T) {
	val, xe := Resolve("plaintext_token", Options{AllowPlaintext: true})
	if xe != nil {
		t.Fatalf("unexpected err: %v", xe)
	}
	if val != "plaintext_token" {
		t.Fatalf("val=%q", val)
	}
}

func TestResolve_PlaintextDenied(t *testing.T) {
	_, xe := Resolve("plaintext_token", Options{AllowPlaintext: false})
	if xe == nil || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected CCP_CFG_INVALID")
	}
}

func TestIsKeyringRef(t *testing.T) {
	if !IsKeyringRef("keyring:foo") {
		t.Fatal("expected true")
	}
	if IsKeyringRef("plaintext") {
		t.Fatal("expected false")
	}
}
