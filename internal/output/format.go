package output

import (
	"strings"

	"github.com/zx06/ccprofile/internal/errors"
)

// Format 是 stdout 的输出格式。
type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

func IsValid(f Format) bool {
	switch f {
	case FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV:
		return true
	default:
		return false
	}
}

// Parse 解析 --format / CCPROFILE_FORMAT / config 中的值，大小写不敏感，空串视为 auto。
func Parse(s string) (Format, *errors.XError) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatAuto, nil
	}
	if !IsValid(f) {
		return "", errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": s})
	}
	return f, nil
}

// Resolve 把 auto 落到具体格式：终端上给人看的表格，管道里给脚本/agent 的 JSON。
func (f Format) Resolve(stdoutIsTTY bool) Format {
	if f != FormatAuto {
		return f
	}
	if stdoutIsTTY {
		return FormatTable
	}
	return FormatJSON
}

// IsDocument 报告 f 是否能作为 export 文件格式（profile 导出只支持 json / yaml）。
func (f Format) IsDocument() bool {
	return f == FormatJSON || f == FormatYAML
}
