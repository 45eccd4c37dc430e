package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/credential"
)

// Z-AI API key 的环境变量，按优先级排列。
var zaiTokenEnvVars = []string{"ZAI_API_KEY", "ZHIPUAI_API_KEY"}

// Detected 是在本机找到的现有凭据。
type Detected struct {
	Token    string              `json:"-" yaml:"-"`
	Provider credential.Provider `json:"provider" yaml:"provider"`
	Source   string              `json:"source" yaml:"source"`
}

// DetectZAIToken 从环境变量读取 Z-AI API key。
func (m *Manager) DetectZAIToken() (Detected, bool) {
	for _, k := range zaiTokenEnvVars {
		if v := strings.TrimSpace(m.getenv(k)); v != "" {
			return Detected{Token: v, Provider: credential.ProviderZAI, Source: "env:" + k}, true
		}
	}
	return Detected{}, false
}

// DetectClaudeToken 查找客户端当前使用的凭据：macOS keychain，然后是已知的凭据文件。
// 只返回能通过校验的凭据。
func (m *Manager) DetectClaudeToken(ctx context.Context) (Detected, bool) {
	if m.goos == "darwin" && m.keychain.Available() {
		if v, err := m.keychain.Read(ctx); err == nil && v != "" && credential.Validate(v, credential.ProviderClaude) == nil {
			return Detected{Token: v, Provider: credential.ProviderClaude, Source: "keychain"}, true
		}
	}
	for _, path := range m.credentialFileCandidates() {
		v, ok, err := activate.ReadCredentialFile(path)
		if err != nil || !ok || v == "" {
			continue
		}
		if credential.Validate(v, credential.ProviderClaude) == nil {
			return Detected{Token: v, Provider: credential.ProviderClaude, Source: "file:" + path}, true
		}
	}
	return Detected{}, false
}

// DetectCurrentToken 依次尝试 claude 凭据与 Z-AI 环境变量。
func (m *Manager) DetectCurrentToken(ctx context.Context) (Detected, bool) {
	if d, ok := m.DetectClaudeToken(ctx); ok {
		return d, true
	}
	return m.DetectZAIToken()
}

func (m *Manager) credentialFileCandidates() []string {
	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	if m.target.Kind != activate.KindShell {
		add(m.target.Path)
	}
	if m.homeDir == "" {
		return paths
	}
	if m.goos == "windows" {
		add(filepath.Join(m.homeDir, "AppData", "Roaming", "Claude", ".credentials.json"))
		add(filepath.Join(m.homeDir, "AppData", "Local", "Claude", ".credentials.json"))
	}
	add(filepath.Join(m.homeDir, ".claude", ".credentials.json"))
	add(filepath.Join(m.homeDir, ".config", "claude", "credentials.json"))
	return paths
}
