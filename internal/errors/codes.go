package errors

// Code 是稳定错误码（字符串），供脚本与 agent 判断。
// 只增不改、不复用旧含义。
type Code string

const (
	// Config / args
	CodeCfgNotFound    Code = "CCP_CFG_NOT_FOUND"
	CodeCfgInvalid     Code = "CCP_CFG_INVALID"
	CodeSecretNotFound Code = "CCP_SECRET_NOT_FOUND"

	// Token 校验（ValidationError）
	CodeTokenInvalid Code = "CCP_TOKEN_INVALID"

	// Profile
	CodeProfileNotFound Code = "CCP_PROFILE_NOT_FOUND"
	CodeProfileExists   Code = "CCP_PROFILE_EXISTS"

	// 存储（keyring / 文件系统）
	CodeStorageFailed Code = "CCP_STORAGE_FAILED"
	CodeLockTimeout   Code = "CCP_LOCK_TIMEOUT"

	// 外部工具（macOS security）
	CodeKeychainFailed Code = "CCP_KEYCHAIN_FAILED"

	// MCP streamable HTTP 鉴权失败
	CodeMCPUnauthorized Code = "CCP_MCP_UNAUTHORIZED"

	// 用户取消交互
	CodeCancelled Code = "CCP_CANCELLED"

	// Internal
	CodeInternal Code = "CCP_INTERNAL"
)

func AllCodes() []Code {
	return []Code{
		CodeCfgNotFound,
		CodeCfgInvalid,
		CodeSecretNotFound,
		CodeTokenInvalid,
		CodeProfileNotFound,
		CodeProfileExists,
		CodeStorageFailed,
		CodeLockTimeout,
		CodeKeychainFailed,
		CodeMCPUnauthorized,
		CodeCancelled,
		CodeInternal,
	}
}
