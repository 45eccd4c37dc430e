package config

import (
	"path/filepath"

	"github.com/zx06/ccprofile/internal/errors"
)

// Resolve 合并配置：CLI > ENV > Config > 默认值。
//
// 显式给出凭据文件路径（--credentials-path 或 CCPROFILE_CREDENTIALS_PATH）
// 时目标类型强制为 file。
func Resolve(opts Options) (Resolved, *errors.XError) {
	opts.fillDefaults()

	cfg, cfgPath, xe := LoadConfig(opts)
	if xe != nil {
		return Resolved{}, xe
	}

	r := Resolved{
		ConfigPath:     cfgPath,
		ConfigDir:      DefaultDir(opts),
		Format:         "auto",
		TargetType:     cfg.ActiveTarget.Type,
		TargetPath:     cfg.ActiveTarget.Path,
		SettingsPath:   cfg.SettingsPath,
		UpdateSettings: boolOr(cfg.UpdateSettings, true),
		DefaultProfile: cfg.DefaultProfile,
		MaskTokens:     boolOr(cfg.MaskTokens, true),
		File:           cfg,
	}
	if cfgPath != "" {
		r.ConfigDir = filepath.Dir(cfgPath)
	}

	// format：--format > CCPROFILE_FORMAT > format > auto
	if cfg.Format != "" {
		r.Format = cfg.Format
	}
	if opts.EnvFormat != "" {
		r.Format = opts.EnvFormat
	}
	if opts.CLIFormatSet {
		r.Format = opts.CLIFormat
	}

	// 凭据文件：--credentials-path > CCPROFILE_CREDENTIALS_PATH > active_target
	if opts.EnvCredentialsPath != "" {
		r.TargetType, r.TargetPath = "file", opts.EnvCredentialsPath
	}
	if opts.CLICredentialsPathSet && opts.CLICredentialsPath != "" {
		r.TargetType, r.TargetPath = "file", opts.CLICredentialsPath
	}

	if opts.EnvSettingsPath != "" {
		r.SettingsPath = opts.EnvSettingsPath
	}

	return r, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Bool 返回指向 v 的指针，用于构造 File。
func Bool(v bool) *bool { return &v }
