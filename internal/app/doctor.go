package app

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/settings"
)

// Check 状态。
const (
	StatusOK   = "ok"
	StatusWarn = "warn"
	StatusFail = "fail"
)

// Check 是一项诊断结果。
type Check struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail" yaml:"detail"`
	Fixed  bool   `json:"fixed,omitempty" yaml:"fixed,omitempty"`
}

// DoctorReport 汇总所有诊断。
type DoctorReport struct {
	Checks []Check `json:"checks" yaml:"checks"`
	OK     bool    `json:"ok" yaml:"ok"`
}

func (r *DoctorReport) add(c Check) {
	r.Checks = append(r.Checks, c)
	if c.Status == StatusFail {
		r.OK = false
	}
}

func (r *DoctorReport) ToTableData() ([]string, []map[string]any, bool) {
	cols := []string{"name", "status", "detail", "fixed"}
	rows := make([]map[string]any, 0, len(r.Checks))
	for _, c := range r.Checks {
		rows = append(rows, map[string]any{
			"name":   c.Name,
			"status": c.Status,
			"detail": c.Detail,
			"fixed":  c.Fixed,
		})
	}
	return cols, rows, true
}

// Doctor 检查运行环境。fix=true 时修正凭据文件权限并清理名称索引中的悬空条目。
func (m *Manager) Doctor(ctx context.Context, fix bool) *DoctorReport {
	r := &DoctorReport{OK: true}
	r.add(m.checkKeyring())
	r.add(m.checkConfigDir())
	if m.goos == "darwin" {
		r.add(m.checkKeychainTool())
	}
	r.add(m.checkCredentialFile(fix))
	r.add(m.checkSettings())
	r.add(m.checkProfiles(fix))
	return r
}

func (m *Manager) checkKeyring() Check {
	c := Check{Name: "keyring"}
	if xe := m.CheckKeyring(); xe != nil {
		c.Status, c.Detail = StatusFail, xe.Error()
		return c
	}
	c.Status, c.Detail = StatusOK, "read/write access works"
	return c
}

func (m *Manager) checkConfigDir() Check {
	c := Check{Name: "config_dir"}
	if m.configDir == "" {
		c.Status, c.Detail = StatusWarn, "config directory is not set"
		return c
	}
	st, err := os.Stat(m.configDir)
	switch {
	case os.IsNotExist(err):
		c.Status, c.Detail = StatusWarn, m.configDir+" does not exist; run init"
	case err != nil:
		c.Status, c.Detail = StatusFail, err.Error()
	case !st.IsDir():
		c.Status, c.Detail = StatusFail, m.configDir+" is not a directory"
	default:
		c.Status, c.Detail = StatusOK, m.configDir
	}
	return c
}

func (m *Manager) checkKeychainTool() Check {
	c := Check{Name: "keychain_tool"}
	if m.keychain.Available() {
		c.Status, c.Detail = StatusOK, "security tool found"
		return c
	}
	c.Status, c.Detail = StatusWarn, "security tool not found; OAuth credentials cannot be activated"
	return c
}

func (m *Manager) checkCredentialFile(fix bool) Check {
	c := Check{Name: "credentials_file"}
	if m.target.Kind == activate.KindShell {
		c.Status, c.Detail = StatusOK, "shell target writes no file"
		return c
	}
	path := m.target.Path
	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		c.Status, c.Detail = StatusOK, path+" not present"
		return c
	}
	if err != nil {
		c.Status, c.Detail = StatusFail, err.Error()
		return c
	}
	if m.goos == "windows" || st.Mode().Perm() == 0o600 {
		c.Status, c.Detail = StatusOK, path
		return c
	}
	c.Status = StatusWarn
	c.Detail = fmt.Sprintf("%s has mode %04o, expected 0600", path, st.Mode().Perm())
	if fix {
		if err := os.Chmod(path, 0o600); err != nil {
			c.Detail += ": " + err.Error()
			return c
		}
		c.Status, c.Fixed = StatusOK, true
		c.Detail = path + " mode set to 0600"
	}
	return c
}

func (m *Manager) checkSettings() Check {
	c := Check{Name: "settings"}
	if _, err := os.Stat(m.settingsPath); os.IsNotExist(err) {
		c.Status, c.Detail = StatusOK, m.settingsPath+" not present"
		return c
	}
	doc, info, xe := settings.Load(m.settingsPath)
	if xe != nil {
		c.Status, c.Detail = StatusFail, xe.Error()
		return c
	}
	if info.BackupPath != "" {
		c.Status, c.Detail = StatusWarn, "malformed settings backed up to "+info.BackupPath
		return c
	}
	st := settings.Detect(doc)
	c.Status = StatusOK
	c.Detail = fmt.Sprintf("provider=%s token_present=%t", st.Provider, st.TokenPresent)
	return c
}

func (m *Manager) checkProfiles(fix bool) Check {
	c := Check{Name: "profiles"}
	names, xe := m.registry.Names()
	if xe != nil {
		c.Status, c.Detail = StatusFail, xe.Error()
		return c
	}
	var dangling []string
	for _, n := range names {
		if _, xe := m.registry.Get(n); xe != nil && xe.Code == errors.CodeProfileNotFound {
			dangling = append(dangling, n)
		}
	}
	if len(dangling) == 0 {
		c.Status, c.Detail = StatusOK, fmt.Sprintf("%d profiles", len(names))
		return c
	}
	c.Status = StatusWarn
	c.Detail = fmt.Sprintf("%d profiles, index lists missing entries %v", len(names), dangling)
	if fix {
		xe := m.registry.MutateNameIndex(func(cur []string) ([]string, *errors.XError) {
			return slices.DeleteFunc(cur, func(n string) bool { return slices.Contains(dangling, n) }), nil
		})
		if xe != nil {
			c.Detail += ": " + xe.Error()
			return c
		}
		c.Status, c.Fixed = StatusOK, true
		c.Detail = fmt.Sprintf("%d profiles, removed missing entries %v", len(names)-len(dangling), dangling)
	}
	return c
}
