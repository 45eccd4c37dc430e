// Package credential 判定凭据是普通 bearer token 还是结构化 OAuth grant，
// 并负责 token 校验、比较与脱敏。
//
// 所有需要区分 token 形态的地方都通过 Classify 得到的 Credential 判断，
// 不在调用方各自解析 JSON。
package credential

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// OAuthKey 是 Claude OAuth 凭据 JSON 的顶层标记字段。
const OAuthKey = "claudeAiOauth"

// Kind 区分凭据形态。
type Kind int

const (
	KindPlain Kind = iota
	KindOAuth
)

func (k Kind) String() string {
	if k == KindOAuth {
		return "oauth"
	}
	return "plain"
}

// Grant 是从 claudeAiOauth 中解析出的字段，仅用于判断；原始 JSON 保存在 Credential.Raw。
type Grant struct {
	AccessToken     string
	RefreshToken    string
	HasRefreshToken bool
	ExpiresAt       int64 // epoch 毫秒；缺失为 0
}

// Credential 是 Classify 的结果。Raw 始终是调用方传入的原字符串，
// OAuth 的附加字段（scopes、mcpOAuth 等）只存在于 Raw 中，不会被重新序列化。
type Credential struct {
	Kind  Kind
	Raw   string
	Grant *Grant
}

func (c Credential) IsOAuth() bool { return c.Kind == KindOAuth }

// Classify 判定 raw 的形态。只有 trim 后以 '{' 开头、能解析为 JSON 对象
// 且包含 claudeAiOauth 对象时才是 OAuth，其余一律视为普通 token。
func Classify(raw string) Credential {
	plain := Credential{Kind: KindPlain, Raw: raw}
	doc, ok := parseObject(raw)
	if !ok {
		return plain
	}
	grant, ok := grantFromDoc(doc)
	if !ok {
		return plain
	}
	return Credential{Kind: KindOAuth, Raw: raw, Grant: grant}
}

// ClassifyValue 与 Classify 相同，但接受 settings.json 中可能出现的对象形式。
func ClassifyValue(v any) Credential {
	switch t := v.(type) {
	case string:
		return Classify(t)
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return Credential{Kind: KindPlain}
		}
		if grant, ok := grantFromDoc(t); ok {
			return Credential{Kind: KindOAuth, Raw: string(b), Grant: grant}
		}
		return Credential{Kind: KindPlain, Raw: string(b)}
	default:
		return Credential{Kind: KindPlain}
	}
}

// Expiry 返回 (是否过期, 剩余分钟数)。剩余分钟数向零截断，过期时为负或零。
func (g Grant) Expiry(now time.Time) (bool, int) {
	nowMs := now.UnixMilli()
	minutes := (g.ExpiresAt - nowMs) / 60000
	return g.ExpiresAt < nowMs, int(minutes)
}

// Equal 比较 profile 中存储的凭据 a 与当前生效的凭据 b（string 或 settings.json
// 中的对象）。任一侧为 OAuth 时按 JSON 结构比较（与字段顺序无关），否则按字符串比较。
func Equal(a string, b any) bool {
	switch bv := b.(type) {
	case string:
		if Classify(a).IsOAuth() || Classify(bv).IsOAuth() {
			return structuralEqual(a, bv)
		}
		return a == bv
	case map[string]any:
		left, ok := parseObject(a)
		if !ok {
			return false
		}
		return reflect.DeepEqual(left, normalizeJSON(bv))
	case nil:
		return false
	default:
		return false
	}
}

func structuralEqual(a, b string) bool {
	left, ok := parseObject(a)
	if !ok {
		return false
	}
	right, ok := parseObject(b)
	if !ok {
		return false
	}
	return reflect.DeepEqual(left, right)
}

func parseObject(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// normalizeJSON 让调用方构造的 map（可能含 int64 等）与 json.Unmarshal 结果可比。
func normalizeJSON(v map[string]any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func grantFromDoc(doc map[string]any) (*Grant, bool) {
	inner, ok := doc[OAuthKey].(map[string]any)
	if !ok {
		return nil, false
	}
	g := &Grant{}
	g.AccessToken, _ = inner["accessToken"].(string)
	if rt, present := inner["refreshToken"]; present {
		g.HasRefreshToken = true
		g.RefreshToken, _ = rt.(string)
	}
	if exp, ok := inner["expiresAt"].(float64); ok {
		g.ExpiresAt = int64(exp)
	}
	return g, true
}

// unwrapToken 处理旧版本写出的 {"token": "..."} 包装，返回内部 token。
func unwrapToken(raw string) (string, bool) {
	doc, ok := parseObject(raw)
	if !ok {
		return "", false
	}
	if _, isOAuth := doc[OAuthKey]; isOAuth {
		return "", false
	}
	inner, ok := doc["token"].(string)
	return inner, ok
}
