package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zx06/ccprofile/internal/atomicfile"
	"github.com/zx06/ccprofile/internal/errors"
)

const (
	appDirName     = "ccprofile"
	configFileName = "config.yaml"
)

func (o *Options) fillDefaults() {
	if o.HomeDir == "" {
		if hd, err := os.UserHomeDir(); err == nil {
			o.HomeDir = hd
		}
	}
}

func defaultConfigPaths(xdgConfigHome, homeDir string) []string {
	paths := make([]string, 0, 2)
	if xdgConfigHome != "" {
		paths = append(paths, filepath.Join(xdgConfigHome, appDirName, configFileName))
	}
	if homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".config", appDirName, configFileName))
	}
	return paths
}

// DefaultDir 返回配置目录：$XDG_CONFIG_HOME/ccprofile，否则 ~/.config/ccprofile。
func DefaultDir(opts Options) string {
	opts.fillDefaults()
	if opts.XDGConfigHome != "" {
		return filepath.Join(opts.XDGConfigHome, appDirName)
	}
	return filepath.Join(opts.HomeDir, ".config", appDirName)
}

// DefaultPath 返回 init 写入配置文件的默认路径。
func DefaultPath(opts Options) string {
	return filepath.Join(DefaultDir(opts), configFileName)
}

func readFile(path string) (File, *errors.XError) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, errors.New(errors.CodeCfgNotFound, "config file not found", map[string]any{"path": path})
		}
		return File{}, errors.Wrap(errors.CodeCfgInvalid, "failed to read config file", map[string]any{"path": path}, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, errors.Wrap(errors.CodeCfgInvalid, "invalid config file", map[string]any{"path": path}, err)
	}
	return f, nil
}

// LoadConfig 加载配置文件，返回完整配置和配置文件路径。
// 未显式指定且默认位置都不存在时返回空配置与空路径。
func LoadConfig(opts Options) (File, string, *errors.XError) {
	opts.fillDefaults()

	if opts.ConfigPath != "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			abs = opts.ConfigPath
		}
		f, xe := readFile(abs)
		if xe != nil {
			return File{}, "", xe
		}
		return f, abs, nil
	}

	for _, p := range defaultConfigPaths(opts.XDGConfigHome, opts.HomeDir) {
		f, xe := readFile(p)
		if xe != nil {
			if xe.Code == errors.CodeCfgNotFound {
				continue
			}
			return File{}, "", xe
		}
		return f, p, nil
	}

	return File{}, "", nil
}

// Save 以 0600 原子写入配置文件。
func Save(path string, f File) *errors.XError {
	b, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode config", nil, err)
	}
	if err := atomicfile.WriteFile(path, b, 0o600); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to write config file", map[string]any{"path": path}, err)
	}
	return nil
}
