package credential

import "strings"

// DefaultVisible 是脱敏时保留的前缀字符数。
const DefaultVisible = 4

// Mask 返回用于展示/导出的脱敏字符串。
//
//	plain:  sk-a************
//	oauth:  OAuth: sk-a******** (with refreshToken)
func Mask(raw string, visible int) string {
	if raw == "" {
		return ""
	}
	if c := Classify(raw); c.IsOAuth() {
		if c.Grant.AccessToken == "" {
			return "OAuth structure (no accessToken)"
		}
		return "OAuth: " + maskPlain(c.Grant.AccessToken, visible) + " (with refreshToken)"
	}
	if inner, ok := unwrapToken(raw); ok {
		return Mask(inner, visible)
	}
	return maskPlain(raw, visible)
}

func maskPlain(s string, visible int) string {
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return s[:visible] + strings.Repeat("*", len(s)-visible)
}

// IsMasked 判断 token 是否为 Mask 的输出（导入时需要用户补全）。
func IsMasked(token string) bool {
	return strings.Contains(token, "*") || strings.HasPrefix(token, "OAuth:")
}
