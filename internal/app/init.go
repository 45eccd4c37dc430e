package app

import (
	"context"
	"os"
	"time"

	"github.com/zx06/ccprofile/internal/config"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/profile"
)

// keyringCheckAccount 用于 keyring 读写自检，结束后删除。
const keyringCheckAccount = "test_access"

// CheckKeyring 对 keyring 做一次 set/get/delete 往返。
func (m *Manager) CheckKeyring() *errors.XError {
	const checkValue = "test_value"
	svc := m.registry.Service()
	if err := m.keyring.Set(svc, keyringCheckAccount, checkValue); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "keyring is not writable", nil, err)
	}
	got, err := m.keyring.Get(svc, keyringCheckAccount)
	_ = m.keyring.Delete(svc, keyringCheckAccount)
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "keyring is not readable", nil, err)
	}
	if got != checkValue {
		return errors.New(errors.CodeStorageFailed, "keyring returned unexpected value", nil)
	}
	return nil
}

// InitOptions 控制 Init。
type InitOptions struct {
	ConfigPath string
	Config     config.File
	Force      bool // 覆盖已有配置文件
	AutoImport bool // 没有任何 profile 时导入检测到的现有凭据
}

// InitResult 是 Init 的输出。
type InitResult struct {
	ConfigPath    string    `json:"config_path" yaml:"config_path"`
	ConfigWritten bool      `json:"config_written" yaml:"config_written"`
	Imported      string    `json:"imported,omitempty" yaml:"imported,omitempty"`
	Detected      *Detected `json:"detected,omitempty" yaml:"detected,omitempty"`
}

// AutoImportName 是 init 自动导入的 profile 名称。
const AutoImportName = "default"

// Init 检查 keyring、写入配置文件，并在需要时把现有凭据导入为 default profile。
func (m *Manager) Init(ctx context.Context, opts InitOptions) (*InitResult, *errors.XError) {
	if xe := m.CheckKeyring(); xe != nil {
		return nil, xe
	}
	res := &InitResult{ConfigPath: opts.ConfigPath}
	cfg := opts.Config

	if opts.AutoImport {
		names, xe := m.registry.Names()
		if xe != nil {
			return nil, xe
		}
		if len(names) == 0 {
			if d, ok := m.DetectCurrentToken(ctx); ok {
				res.Detected = &d
				p := profile.Profile{
					Name:     AutoImportName,
					Token:    d.Token,
					Provider: d.Provider,
					Metadata: map[string]any{
						"created":     m.now().Format(time.RFC3339),
						"description": "Auto-imported from existing configuration",
					},
				}
				if xe := m.registry.Add(p); xe != nil {
					return nil, xe
				}
				res.Imported = AutoImportName
				if cfg.DefaultProfile == "" {
					cfg.DefaultProfile = AutoImportName
				}
				m.log.Info("auto-imported current credential", "profile", AutoImportName, "source", d.Source)
			}
		}
	}

	if _, err := os.Stat(opts.ConfigPath); err == nil && !opts.Force {
		return res, nil
	}
	if xe := config.Save(opts.ConfigPath, cfg); xe != nil {
		return nil, xe
	}
	res.ConfigWritten = true
	return res, nil
}
