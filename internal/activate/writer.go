package activate

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"al.essio.dev/pkg/shellescape"

	"github.com/zx06/ccprofile/internal/atomicfile"
	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/log"
	"github.com/zx06/ccprofile/internal/settings"
)

// ExpiryWarningMinutes 内即将过期的 OAuth 凭据会产生警告。
const ExpiryWarningMinutes = 10

// Request 是一次激活的输入。
type Request struct {
	Credential string
	Provider   credential.Provider
	APIURL     string
}

// Result 描述激活产生的副作用。
type Result struct {
	Target           Target   `json:"target" yaml:"target"`
	OAuth            bool     `json:"oauth" yaml:"oauth"`
	KeychainCleared  bool     `json:"keychain_cleared" yaml:"keychain_cleared"`
	KeychainWritten  bool     `json:"keychain_written" yaml:"keychain_written"`
	FilePath         string   `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	FallbackRemoved  bool     `json:"fallback_removed,omitempty" yaml:"fallback_removed,omitempty"`
	Expired          bool     `json:"expired,omitempty" yaml:"expired,omitempty"`
	MinutesRemaining *int     `json:"minutes_remaining,omitempty" yaml:"minutes_remaining,omitempty"`
	Exports          []string `json:"exports,omitempty" yaml:"exports,omitempty"`
	Warnings         []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Writer 把凭据写入 Target。
type Writer struct {
	keychain Keychain
	log      *slog.Logger
	now      func() time.Time
}

// NewWriter 创建 Writer；kc 为 nil 时使用 security(1)。
func NewWriter(kc Keychain, logger *slog.Logger) *Writer {
	if kc == nil {
		kc = NewSecurityCLI()
	}
	return &Writer{keychain: kc, log: log.OrDiscard(logger), now: time.Now}
}

// Activate 按 target 物化凭据：
//
//   - Shell：不产生任何副作用，只返回 export 语句。
//   - Keychain：先清除已有条目；未过期的 OAuth 写回 keychain，过期的不写
//     （迫使客户端重新登录），两种情况都删除 target.Path 中残留的普通 token；
//     普通 token 写到 target.Path 文件。
//   - File：原子写入 target.Path，权限 0600。
//
// keychain 的 delete 成功而 add 失败时不会重试，直接返回错误。
func (w *Writer) Activate(ctx context.Context, req Request, target Target) (*Result, *errors.XError) {
	if req.Credential == "" {
		return nil, errors.New(errors.CodeTokenInvalid, "credential is empty", nil)
	}
	if req.Provider == "" {
		req.Provider = credential.ProviderClaude
	}

	res := &Result{Target: target}
	cred := credential.Classify(req.Credential)
	if cred.IsOAuth() {
		res.OAuth = true
		expired, minutes := cred.Grant.Expiry(w.now())
		res.Expired = expired
		res.MinutesRemaining = &minutes
		switch {
		case expired:
			res.warn("OAuth credentials are expired; run /login in the client to re-authenticate")
		case minutes < ExpiryWarningMinutes:
			res.warn("OAuth token expires in %d minutes", minutes)
		}
	}

	switch target.Kind {
	case KindShell:
		res.Exports = ShellExports(req.Provider, req.Credential, req.APIURL)
		return res, nil
	case KindKeychain:
		return res, w.activateKeychain(ctx, cred, target, res)
	case KindFile:
		return res, w.writeFile(req.Credential, target.Path, res)
	default:
		return nil, errors.New(errors.CodeCfgInvalid, "unknown active target", map[string]any{"type": string(target.Kind)})
	}
}

func (w *Writer) activateKeychain(ctx context.Context, cred credential.Credential, target Target, res *Result) *errors.XError {
	if !w.keychain.Available() {
		if cred.IsOAuth() {
			return errors.Wrap(errors.CodeKeychainFailed, "cannot write OAuth credentials to keychain", nil, ErrKeychainUnavailable)
		}
		res.warn("macOS security tool not available; keychain entry not cleared")
		return w.writeFile(cred.Raw, target.Path, res)
	}

	if err := w.keychain.Delete(ctx); err != nil {
		return errors.Wrap(errors.CodeKeychainFailed, "failed to clear keychain entry", map[string]any{"service": KeychainService}, err)
	}
	res.KeychainCleared = true
	w.log.Debug("cleared keychain entry", "service", KeychainService)

	if !cred.IsOAuth() {
		return w.writeFile(cred.Raw, target.Path, res)
	}
	// OAuth 只存在于 keychain；残留的普通 token 文件会被 Reader 当作当前凭据。
	if xe := w.removeFallback(target.Path, res); xe != nil {
		return xe
	}
	if res.Expired {
		w.log.Debug("skipping keychain write for expired OAuth credentials")
		return nil
	}
	if err := w.keychain.Write(ctx, cred.Raw); err != nil {
		return errors.Wrap(errors.CodeKeychainFailed, "failed to write keychain entry", map[string]any{"service": KeychainService}, err)
	}
	res.KeychainWritten = true
	return nil
}

func (w *Writer) removeFallback(path string, res *Result) *errors.XError {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.CodeStorageFailed, "failed to remove stale credentials file", map[string]any{"path": path}, err)
	}
	res.FallbackRemoved = true
	w.log.Debug("removed plain credentials file", "path", path)
	return nil
}

func (w *Writer) writeFile(raw, path string, res *Result) *errors.XError {
	if path == "" {
		return errors.New(errors.CodeCfgInvalid, "credentials file path is not configured", nil)
	}
	if err := atomicfile.WriteFile(path, []byte(raw), 0o600); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to write credentials file", map[string]any{"path": path}, err)
	}
	res.FilePath = path
	w.log.Debug("wrote credentials file", "path", path)
	return nil
}

// ShellExports 生成可 eval 的语句。zai 导出 base URL 与 token；claude 总是清除 base URL，
// apiURL 只对 zai 生效。普通 token 导出为 ANTHROPIC_AUTH_TOKEN，OAuth 由客户端自行读取。
func ShellExports(provider credential.Provider, token, apiURL string) []string {
	if provider == credential.ProviderZAI {
		if apiURL == "" {
			apiURL = credential.ZAIDefaultAPIURL
		}
		return []string{
			exportLine(settings.KeyBaseURL, apiURL),
			exportLine(settings.KeyToken, token),
		}
	}
	lines := []string{"unset " + settings.KeyBaseURL}
	if !credential.Classify(token).IsOAuth() {
		lines = append(lines, exportLine(settings.KeyToken, token))
	}
	return lines
}

func exportLine(key, value string) string {
	return "export " + key + "=" + shellescape.Quote(value)
}

// Reader 读取当前生效的凭据。
type Reader struct {
	keychain Keychain
}

func NewReader(kc Keychain) *Reader {
	if kc == nil {
		kc = NewSecurityCLI()
	}
	return &Reader{keychain: kc}
}

// ReadActive 返回 target 中当前生效的凭据；没有时返回空串。
// Keychain 目标先读 keychain，条目不存在再读普通 token 的落盘文件。
func (r *Reader) ReadActive(ctx context.Context, target Target) (string, *errors.XError) {
	switch target.Kind {
	case KindShell:
		return "", nil
	case KindKeychain:
		if r.keychain.Available() {
			val, err := r.keychain.Read(ctx)
			if err == nil && val != "" {
				return val, nil
			}
			if err != nil && !stderrors.Is(err, ErrKeychainNotFound) {
				return "", errors.Wrap(errors.CodeKeychainFailed, "failed to read keychain entry", map[string]any{"service": KeychainService}, err)
			}
		}
		return readFileTarget(target.Path)
	case KindFile:
		return readFileTarget(target.Path)
	default:
		return "", errors.New(errors.CodeCfgInvalid, "unknown active target", map[string]any{"type": string(target.Kind)})
	}
}

func readFileTarget(path string) (string, *errors.XError) {
	if path == "" {
		return "", nil
	}
	val, _, err := ReadCredentialFile(path)
	if err != nil {
		return "", errors.Wrap(errors.CodeStorageFailed, "failed to read credentials file", map[string]any{"path": path}, err)
	}
	return val, nil
}
