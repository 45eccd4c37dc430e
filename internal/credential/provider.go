package credential

import (
	"strings"

	"github.com/zx06/ccprofile/internal/errors"
)

// Provider 是凭据对应的 API 后端。
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderZAI    Provider = "zai"
)

// ZAIDefaultAPIURL 是 zai profile 未指定 api_url 时使用的 Anthropic 兼容端点。
const ZAIDefaultAPIURL = "https://api.z.ai/api/anthropic"

// ParseProvider 解析用户输入（大小写不敏感）；空字符串视为 claude。
func ParseProvider(s string) (Provider, *errors.XError) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProviderClaude, nil
	}
	if !p.Valid() {
		return "", errors.New(errors.CodeCfgInvalid, "invalid provider; use 'claude' or 'zai'", map[string]any{"provider": s})
	}
	return p, nil
}

func (p Provider) Valid() bool {
	return p == ProviderClaude || p == ProviderZAI
}

// DefaultAPIURL 返回 provider 的默认 base URL；claude 使用客户端内置地址，返回空。
func (p Provider) DefaultAPIURL() string {
	if p == ProviderZAI {
		return ZAIDefaultAPIURL
	}
	return ""
}

func (p Provider) String() string { return string(p) }
