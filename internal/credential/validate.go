package credential

import (
	"strings"
	"unicode"

	"github.com/zx06/ccprofile/internal/errors"
)

// token 校验失败原因，放在 XError.Details["reason"] 中。
const (
	ReasonEmpty           = "empty"
	ReasonOAuthMissing    = "oauth missing fields"
	ReasonWhitespace      = "contains whitespace"
	ReasonTooShort        = "too short"
	ReasonMissingPrefix   = "missing sk- prefix"
	ReasonUnknownProvider = "unknown provider"
)

const (
	minPlainTokenLength    = 20
	claudePlainTokenPrefix = "sk-"
)

// Validate 在写入存储前检查 token 格式，纯函数、无副作用。
// OAuth JSON 可以合法地包含空白，因此只检查必需字段；
// 旧版本的 {"token": "..."} 包装按内部 token 校验。
func Validate(token string, provider Provider) *errors.XError {
	if token == "" {
		return invalid(ReasonEmpty, "token is empty", provider)
	}
	if !provider.Valid() {
		return invalid(ReasonUnknownProvider, "unknown provider: "+string(provider), provider)
	}

	if c := Classify(token); c.IsOAuth() {
		if c.Grant.AccessToken != "" && c.Grant.HasRefreshToken {
			return nil
		}
		return invalid(ReasonOAuthMissing, "OAuth structure missing required fields (accessToken, refreshToken)", provider)
	}
	if inner, ok := unwrapToken(token); ok {
		return Validate(inner, provider)
	}

	if strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return invalid(ReasonWhitespace, "token contains whitespace", provider)
	}
	if len(token) < minPlainTokenLength {
		return invalid(ReasonTooShort, "token too short (minimum 20 characters)", provider)
	}
	if provider == ProviderClaude && !strings.HasPrefix(token, claudePlainTokenPrefix) {
		return invalid(ReasonMissingPrefix, "Claude token must start with 'sk-' prefix", provider)
	}
	return nil
}

func invalid(reason, message string, provider Provider) *errors.XError {
	return errors.New(errors.CodeTokenInvalid, message, map[string]any{
		"reason":   reason,
		"provider": string(provider),
	})
}

// Reason 取出 Validate 返回错误中的原因；非校验错误返回空串。
func Reason(xe *errors.XError) string {
	if xe == nil || xe.Code != errors.CodeTokenInvalid {
		return ""
	}
	r, _ := xe.Details["reason"].(string)
	return r
}
