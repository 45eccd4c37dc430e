package errors

// ExitCode 是进程退出码（稳定契约）。
type ExitCode int

const (
	ExitOK ExitCode = 0

	// 2: 参数/配置/token 校验错误
	ExitConfig ExitCode = 2

	// 3: profile 不存在或已存在
	ExitProfile ExitCode = 3

	// 4: keyring / 文件系统 / 锁超时
	ExitStorage ExitCode = 4

	// 5: 外部工具（keychain）失败
	ExitExternal ExitCode = 5

	// 6: 用户取消
	ExitCancelled ExitCode = 6

	// 10: 内部错误
	ExitInternal ExitCode = 10
)

func ExitCodeFor(code Code) ExitCode {
	switch code {
	case CodeCfgNotFound, CodeCfgInvalid, CodeSecretNotFound, CodeTokenInvalid, CodeMCPUnauthorized:
		return ExitConfig
	case CodeProfileNotFound, CodeProfileExists:
		return ExitProfile
	case CodeStorageFailed, CodeLockTimeout:
		return ExitStorage
	case CodeKeychainFailed:
		return ExitExternal
	case CodeCancelled:
		return ExitCancelled
	case CodeInternal:
		fallthrough
	default:
		return ExitInternal
	}
}
