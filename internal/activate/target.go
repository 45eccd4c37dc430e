// Package activate 把某个 profile 的凭据物化为“当前生效”的凭据：
// macOS keychain 条目、凭据文件（原子写、0600）或 shell export 语句，三者互斥。
package activate

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/zx06/ccprofile/internal/errors"
)

// Kind 是 Target 的变体标签。
type Kind string

const (
	KindKeychain Kind = "keychain"
	KindFile     Kind = "file"
	KindShell    Kind = "shell"
)

// Target 描述当前凭据写到哪里。
//
// KindKeychain 的 Path 是普通 token 的落盘位置（keychain 只存放 OAuth）；
// KindFile 的 Path 是目标文件；KindShell 不写任何东西，只生成 export 语句。
type Target struct {
	Kind Kind   `json:"type" yaml:"type"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// KeychainTarget 的 fallbackPath 用于存放普通 token。
func KeychainTarget(fallbackPath string) Target {
	return Target{Kind: KindKeychain, Path: fallbackPath}
}

func File(path string) Target { return Target{Kind: KindFile, Path: path} }
func Shell() Target           { return Target{Kind: KindShell} }

func (t Target) String() string {
	if t.Path == "" {
		return string(t.Kind)
	}
	return string(t.Kind) + ":" + t.Path
}

// DefaultCredentialsPath 返回 ~/.claude/.credentials.json。
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", ".credentials.json")
	}
	return filepath.Join(home, ".claude", ".credentials.json")
}

// DefaultTarget 按平台选择默认目标：darwin 为 keychain，其余平台为文件。
func DefaultTarget(goos, path string) Target {
	if path == "" {
		path = DefaultCredentialsPath()
	}
	if goos == "darwin" {
		return KeychainTarget(path)
	}
	return File(path)
}

// ParseTarget 由配置值构造 Target。typ 为空时使用当前平台的默认值；
// path 支持 ~ 前缀。
func ParseTarget(typ, path string) (Target, *errors.XError) {
	path = ExpandHome(path)
	switch Kind(strings.ToLower(strings.TrimSpace(typ))) {
	case "":
		return DefaultTarget(runtime.GOOS, path), nil
	case KindKeychain:
		if path == "" {
			path = DefaultCredentialsPath()
		}
		return KeychainTarget(path), nil
	case KindFile:
		if path == "" {
			path = DefaultCredentialsPath()
		}
		return File(path), nil
	case KindShell:
		return Shell(), nil
	default:
		return Target{}, errors.New(errors.CodeCfgInvalid, "invalid active target type; use keychain, file or shell", map[string]any{"type": typ})
	}
}

// ExpandHome 把开头的 ~ 展开为用户主目录。
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
