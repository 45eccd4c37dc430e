// Package settings 维护 CLI 客户端 settings.json 中的 env 段：
// 读取（损坏时备份）、纯函数式合并、原子写回。
//
// 文件中 env 以外的所有字段原样保留。
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/zx06/ccprofile/internal/atomicfile"
	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/errors"
)

const (
	EnvKey     = "env"
	KeyBaseURL = "ANTHROPIC_BASE_URL"
	KeyToken   = "ANTHROPIC_AUTH_TOKEN"
)

// Document 是 settings.json 的顶层对象。
type Document map[string]any

// LoadInfo 描述 Load 过程中发生的事情。
type LoadInfo struct {
	Exists     bool   `json:"exists" yaml:"exists"`
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
}

// DefaultPath 返回 ~/.claude/settings.json。
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "settings.json")
	}
	return filepath.Join(home, ".claude", "settings.json")
}

// Load 读取 settings 文件。文件不存在或为空时返回空文档；
// 内容不是 JSON 对象时先复制到 <path>.bak，再以空文档继续。
func Load(path string) (Document, LoadInfo, *errors.XError) {
	var info LoadInfo
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, info, nil
		}
		return nil, info, errors.Wrap(errors.CodeStorageFailed, "failed to read settings file", map[string]any{"path": path}, err)
	}
	info.Exists = true
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, info, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		bak, berr := atomicfile.Backup(path)
		if berr != nil {
			return nil, info, errors.Wrap(errors.CodeStorageFailed, "settings file is malformed and could not be backed up", map[string]any{"path": path}, berr)
		}
		info.BackupPath = bak
		return Document{}, info, nil
	}
	return doc, info, nil
}

// Env 返回文档中的 env 段；不存在或类型不对时返回 nil。
func (d Document) Env() map[string]any {
	env, _ := d[EnvKey].(map[string]any)
	return env
}

// Merge 返回合并后的新文档，不修改 doc。
// set 中 ANTHROPIC_AUTH_TOKEN 的值若是包含 claudeAiOauth 的 JSON 字符串，
// 存为解析后的对象；其它值原样存入。remove 中不存在的 key 忽略。
func Merge(doc Document, set map[string]any, remove []string) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}

	env := make(map[string]any)
	for k, v := range doc.Env() {
		env[k] = v
	}
	for k, v := range set {
		if k == KeyToken {
			v = promoteOAuth(v)
		}
		env[k] = v
	}
	for _, k := range remove {
		delete(env, k)
	}
	out[EnvKey] = env
	return out
}

func promoteOAuth(v any) any {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return v
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil {
		return v
	}
	if _, ok := obj[credential.OAuthKey]; !ok {
		return v
	}
	return obj
}

// Write 原子写入文档（2 空格缩进）。已存在文件的权限位保持不变，新文件为 0600。
func Write(path string, doc Document) *errors.XError {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode settings", nil, err)
	}
	data = append(data, '\n')

	perm := os.FileMode(0o600)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}
	if err := atomicfile.WriteFile(path, data, perm); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to write settings file", map[string]any{"path": path}, err)
	}
	return nil
}

// Apply 是 Load + Merge + Write。读改写之间不加锁，并发调用可能丢失其中一次更新。
func Apply(path string, set map[string]any, remove []string) (LoadInfo, *errors.XError) {
	doc, info, xe := Load(path)
	if xe != nil {
		return info, xe
	}
	if xe := Write(path, Merge(doc, set, remove)); xe != nil {
		return info, xe
	}
	return info, nil
}

// EnvFor 返回激活某个 provider 凭据时需要设置和删除的 env key。
func EnvFor(provider credential.Provider, token, apiURL string) (map[string]any, []string) {
	if provider == credential.ProviderZAI {
		if apiURL == "" {
			apiURL = credential.ZAIDefaultAPIURL
		}
		return map[string]any{KeyBaseURL: apiURL, KeyToken: token}, nil
	}
	set := map[string]any{KeyToken: token}
	if apiURL != "" {
		set[KeyBaseURL] = apiURL
		return set, nil
	}
	return set, []string{KeyBaseURL}
}

// State 是从 settings env 推断出的当前状态。
type State struct {
	Provider     credential.Provider `json:"provider" yaml:"provider"`
	BaseURL      string              `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	TokenPresent bool                `json:"token_present" yaml:"token_present"`
	Token        any                 `json:"-" yaml:"-"`
}

// Detect 通过 base URL 推断 provider：包含 z.ai 或 bigmodel.cn 时为 zai，否则 claude。
func Detect(doc Document) State {
	env := doc.Env()
	st := State{Provider: credential.ProviderClaude}
	if u, ok := env[KeyBaseURL].(string); ok {
		st.BaseURL = u
		if strings.Contains(u, "z.ai") || strings.Contains(u, "bigmodel.cn") {
			st.Provider = credential.ProviderZAI
		}
	}
	if tok, ok := env[KeyToken]; ok {
		st.TokenPresent = true
		st.Token = tok
	}
	return st
}
