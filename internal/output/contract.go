package output

import "github.com/zx06/ccprofile/internal/errors"

// SchemaVersion 是 stdout 外壳的版本；字段只增不改。
const SchemaVersion = 1

// ErrorObject 是失败时的 error 字段。ExitCode 与进程退出码一致，
// MCP 等不经过进程退出的调用方也能据此分类。
type ErrorObject struct {
	Code     errors.Code    `json:"code" yaml:"code"`
	Message  string         `json:"message" yaml:"message"`
	ExitCode int            `json:"exit_code" yaml:"exit_code"`
	Details  map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Envelope 是所有命令（以及 MCP 工具结果）的统一输出外壳。
// Warnings 承载不影响成功的提示，例如 OAuth 即将过期。
type Envelope struct {
	OK            bool         `json:"ok" yaml:"ok"`
	SchemaVersion int          `json:"schema_version" yaml:"schema_version"`
	Error         *ErrorObject `json:"error,omitempty" yaml:"error,omitempty"`
	Data          any          `json:"data,omitempty" yaml:"data,omitempty"`
	Warnings      []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func Success(data any, warnings ...string) Envelope {
	return Envelope{OK: true, SchemaVersion: SchemaVersion, Data: data, Warnings: warnings}
}

func Failure(xe *errors.XError) Envelope {
	if xe == nil {
		xe = errors.New(errors.CodeInternal, "unknown error", nil)
	}
	return Envelope{
		OK:            false,
		SchemaVersion: SchemaVersion,
		Error: &ErrorObject{
			Code:     xe.Code,
			Message:  xe.Message,
			ExitCode: int(errors.ExitCodeFor(xe.Code)),
			Details:  xe.Details,
		},
	}
}
