package secret

import (
	stderrors "errors"
	"strings"

	"github.com/zx06/ccprofile/internal/errors"
)

const keyringPrefix = "keyring:"

// Options 控制 secret 解析行为。
type Options struct {
	AllowPlaintext bool       // 是否允许明文（默认 false）
	Keyring        KeyringAPI // 可注入的 keyring 实现（nil 则用默认）
}

// Resolve 解析配置中的 secret 值（目前用于 mcp.http.auth_token）：
//  1. keyring:xxx → 从 keyring（ServiceName/xxx）读取
//  2. 否则若为明文且允许明文 → 直接返回
//  3. 否则报错
func Resolve(raw string, opts Options) (string, *errors.XError) {
	if strings.HasPrefix(raw, keyringPrefix) {
		service, account, err := parseKeyringRef(strings.TrimPrefix(raw, keyringPrefix))
		if err != nil {
			return "", errors.Wrap(errors.CodeCfgInvalid, "invalid keyring reference", map[string]any{"ref": raw}, err)
		}
		kr := opts.Keyring
		if kr == nil {
			kr = defaultKeyring()
		}
		val, err := kr.Get(service, account)
		if err != nil {
			return "", errors.Wrap(errors.CodeSecretNotFound, "failed to read secret from keyring", map[string]any{"account": account}, err)
		}
		return val, nil
	}
	if opts.AllowPlaintext {
		return raw, nil
	}
	return "", errors.New(errors.CodeCfgInvalid, "plaintext secret not allowed; use keyring: reference or enable allow_plaintext_token", nil)
}

func parseKeyringRef(ref string) (string, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", stderrors.New("empty keyring reference")
	}
	return ServiceName, ref, nil
}

// IsKeyringRef 判断值是否为 keyring 引用。
func IsKeyringRef(s string) bool {
	return strings.HasPrefix(s, keyringPrefix)
}
