package app

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/zx06/ccprofile/internal/activate"
	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/log"
	"github.com/zx06/ccprofile/internal/profile"
	"github.com/zx06/ccprofile/internal/secret"
	"github.com/zx06/ccprofile/internal/settings"
)

// ManagerOptions 是 Manager 的依赖。零值字段使用生产默认值。
type ManagerOptions struct {
	Keyring        secret.KeyringAPI
	Keychain       activate.Keychain
	ConfigDir      string
	Target         activate.Target
	SettingsPath   string
	UpdateSettings bool
	Logger         *slog.Logger
	Now            func() time.Time
	GOOS           string
	Getenv         func(string) string
	HomeDir        string
}

// Manager 编排 profile 的增删改查与激活，是 CLI 与 MCP 共享的业务入口。
type Manager struct {
	registry       *profile.Registry
	writer         *activate.Writer
	reader         *activate.Reader
	keyring        secret.KeyringAPI
	keychain       activate.Keychain
	configDir      string
	target         activate.Target
	settingsPath   string
	updateSettings bool
	log            *slog.Logger
	now            func() time.Time
	goos           string
	getenv         func(string) string
	homeDir        string
}

func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		keyring:        opts.Keyring,
		keychain:       opts.Keychain,
		configDir:      opts.ConfigDir,
		target:         opts.Target,
		settingsPath:   opts.SettingsPath,
		updateSettings: opts.UpdateSettings,
		log:            log.OrDiscard(opts.Logger),
		now:            opts.Now,
		goos:           opts.GOOS,
		getenv:         opts.Getenv,
		homeDir:        opts.HomeDir,
	}
	if m.keyring == nil {
		m.keyring = secret.Default()
	}
	if m.keychain == nil {
		m.keychain = activate.NewSecurityCLI()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.goos == "" {
		m.goos = runtime.GOOS
	}
	if m.getenv == nil {
		m.getenv = func(string) string { return "" }
	}
	if m.homeDir == "" {
		m.homeDir, _ = os.UserHomeDir()
	}
	if m.settingsPath == "" {
		m.settingsPath = settings.DefaultPath()
	}
	if m.target.Kind == "" {
		m.target = activate.DefaultTarget(m.goos, "")
	}
	m.registry = profile.NewRegistry(profile.Options{
		Keyring:   m.keyring,
		ConfigDir: m.configDir,
		Logger:    m.log,
	})
	m.writer = activate.NewWriter(m.keychain, m.log)
	m.reader = activate.NewReader(m.keychain)
	return m
}

func (m *Manager) Registry() *profile.Registry { return m.registry }
func (m *Manager) Target() activate.Target     { return m.target }
func (m *Manager) SettingsPath() string        { return m.settingsPath }

// SaveRequest 是 Save 的输入。
type SaveRequest struct {
	Name        string
	Token       string
	Provider    credential.Provider
	APIURL      string
	Description string
	Overwrite   bool
	NoActivate  bool // 默认保存后立即切换到该 profile
}

// SaveResult 是 Save 的输出。
type SaveResult struct {
	Profile     ProfileView   `json:"profile" yaml:"profile"`
	Overwritten bool          `json:"overwritten" yaml:"overwritten"`
	Switch      *SwitchResult `json:"switch,omitempty" yaml:"switch,omitempty"`
}

// Save 校验并保存 profile，除非 NoActivate，随后切换到它。
func (m *Manager) Save(ctx context.Context, req SaveRequest) (*SaveResult, *errors.XError) {
	if req.Name == "" {
		return nil, errors.New(errors.CodeCfgInvalid, "profile name is required", nil)
	}
	if req.Provider == "" {
		req.Provider = credential.ProviderClaude
	}
	if xe := credential.Validate(req.Token, req.Provider); xe != nil {
		return nil, xe
	}

	existing, xe := m.registry.Get(req.Name)
	exists := xe == nil
	if xe != nil && xe.Code != errors.CodeProfileNotFound {
		return nil, xe
	}
	if exists && !req.Overwrite {
		return nil, errors.New(errors.CodeProfileExists, "profile already exists; use --overwrite to replace it", map[string]any{"profile": req.Name})
	}

	now := m.now()
	meta := map[string]any{"created": now.Format(time.RFC3339)}
	if exists {
		for k, v := range existing.Metadata {
			meta[k] = v
		}
		meta["updated"] = now.Format(time.RFC3339)
	}
	switch {
	case req.Description != "":
		meta["description"] = req.Description
	case !exists:
		meta["description"] = string(req.Provider) + " profile saved on " + now.Format(time.DateOnly)
	}

	p := profile.Profile{
		Name:     req.Name,
		Token:    req.Token,
		Provider: req.Provider,
		APIURL:   req.APIURL,
		Metadata: meta,
	}
	if xe := m.registry.Add(p); xe != nil {
		return nil, xe
	}
	m.log.Info("profile saved", "profile", req.Name, "provider", req.Provider)

	saved, xe := m.registry.Get(req.Name)
	if xe != nil {
		return nil, xe
	}
	res := &SaveResult{Profile: m.view(saved, false, false), Overwritten: exists}
	if !req.NoActivate {
		sw, xe := m.Switch(ctx, req.Name)
		if xe != nil {
			return res, xe
		}
		res.Switch = sw
		res.Profile.Active = true
	}
	return res, nil
}

// SwitchResult 描述一次切换。
type SwitchResult struct {
	Profile          string              `json:"profile" yaml:"profile"`
	Previous         string              `json:"previous,omitempty" yaml:"previous,omitempty"`
	Provider         credential.Provider `json:"provider" yaml:"provider"`
	APIURL           string              `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	Activation       *activate.Result    `json:"activation" yaml:"activation"`
	SettingsUpdated  bool                `json:"settings_updated" yaml:"settings_updated"`
	SettingsPath     string              `json:"settings_path,omitempty" yaml:"settings_path,omitempty"`
	SettingsBackedUp string              `json:"settings_backup,omitempty" yaml:"settings_backup,omitempty"`
}

// Switch 激活指定 profile：写入激活目标，并（除 shell 目标外）更新 settings.json 的 env。
func (m *Manager) Switch(ctx context.Context, name string) (*SwitchResult, *errors.XError) {
	p, xe := m.registry.Get(name)
	if xe != nil {
		return nil, xe
	}
	return m.activate(ctx, p, "")
}

func (m *Manager) activate(ctx context.Context, p profile.Profile, previous string) (*SwitchResult, *errors.XError) {
	act, xe := m.writer.Activate(ctx, activate.Request{
		Credential: p.Token,
		Provider:   p.Provider,
		APIURL:     p.APIURL,
	}, m.target)
	if xe != nil {
		return nil, xe
	}
	res := &SwitchResult{
		Profile:    p.Name,
		Previous:   previous,
		Provider:   p.Provider,
		APIURL:     p.APIURL,
		Activation: act,
	}

	if m.target.Kind != activate.KindShell && m.updateSettings {
		set, remove := settings.EnvFor(p.Provider, p.Token, p.APIURL)
		info, xe := settings.Apply(m.settingsPath, set, remove)
		if xe != nil {
			return res, xe
		}
		res.SettingsUpdated = true
		res.SettingsPath = m.settingsPath
		res.SettingsBackedUp = info.BackupPath
		if info.BackupPath != "" {
			m.log.Warn("settings file was malformed; backed up before rewrite", "backup", info.BackupPath)
		}
	}
	m.log.Info("switched profile", "profile", p.Name, "target", m.target.String())
	return res, nil
}

// Cycle 按名称索引顺序切换到当前激活 profile 的下一个（末尾回到开头）。
// 没有可识别的激活 profile 时切换到第一个。
func (m *Manager) Cycle(ctx context.Context) (*SwitchResult, *errors.XError) {
	list, xe := m.registry.ListAll()
	if xe != nil {
		return nil, xe
	}
	if len(list.Profiles) < 2 {
		return nil, errors.New(errors.CodeProfileNotFound, "need at least 2 profiles to cycle", map[string]any{"count": len(list.Profiles)})
	}

	current, _, xe := m.activeName(ctx, list)
	if xe != nil {
		return nil, xe
	}
	idx := -1
	for i, p := range list.Profiles {
		if p.Name == current {
			idx = i
			break
		}
	}
	next := list.Profiles[(idx+1)%len(list.Profiles)]
	return m.activate(ctx, next, current)
}

// activeName 返回的匹配来源。
const (
	SourceTarget   = "active_target"
	SourceSettings = "settings"
)

// activeName 找出当前激活的 profile：先比较激活目标中的凭据，
// 没有匹配时再比较 settings.json 的 ANTHROPIC_AUTH_TOKEN。
func (m *Manager) activeName(ctx context.Context, list *profile.List) (string, string, *errors.XError) {
	active, xe := m.reader.ReadActive(ctx, m.target)
	if xe != nil {
		m.log.Debug("failed to read active credential", "error", xe)
	}
	if active != "" {
		for _, p := range list.Profiles {
			if credential.Equal(p.Token, active) {
				return p.Name, SourceTarget, nil
			}
		}
	}

	doc, _, xe := settings.Load(m.settingsPath)
	if xe != nil {
		return "", "", xe
	}
	st := settings.Detect(doc)
	if !st.TokenPresent {
		return "", "", nil
	}
	for _, p := range list.Profiles {
		if credential.Equal(p.Token, st.Token) {
			return p.Name, SourceSettings, nil
		}
	}
	return "", "", nil
}

// CurrentInfo 是 Current 的输出。
type CurrentInfo struct {
	Provider     credential.Provider `json:"provider" yaml:"provider"`
	BaseURL      string              `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	TokenPresent bool                `json:"token_present" yaml:"token_present"`
	Profile      string              `json:"profile,omitempty" yaml:"profile,omitempty"`
	Source       string              `json:"source,omitempty" yaml:"source,omitempty"`
	Description  string              `json:"description,omitempty" yaml:"description,omitempty"`
	Created      string              `json:"created,omitempty" yaml:"created,omitempty"`
	Target       activate.Target     `json:"target" yaml:"target"`
}

// Current 报告 settings.json 推断出的 provider 以及匹配到的 profile。
func (m *Manager) Current(ctx context.Context) (*CurrentInfo, *errors.XError) {
	doc, _, xe := settings.Load(m.settingsPath)
	if xe != nil {
		return nil, xe
	}
	st := settings.Detect(doc)
	info := &CurrentInfo{
		Provider:     st.Provider,
		BaseURL:      st.BaseURL,
		TokenPresent: st.TokenPresent,
		Target:       m.target,
	}

	list, xe := m.registry.ListAll()
	if xe != nil {
		return nil, xe
	}
	name, source, xe := m.activeName(ctx, list)
	if xe != nil {
		return nil, xe
	}
	if name == "" {
		return info, nil
	}
	p, _ := list.Find(name)
	info.Profile = name
	info.Source = source
	info.Description = p.Description()
	info.Created = p.Created()
	if !st.TokenPresent {
		info.Provider = p.Provider
	}
	return info, nil
}

// ListOptions 控制 List 输出。
type ListOptions struct {
	ShowTokens bool
	ActiveOnly bool
}

// List 返回按索引顺序排列的 profile，并标出当前激活的一个。
func (m *Manager) List(ctx context.Context, opts ListOptions) (*ProfileListView, *errors.XError) {
	list, xe := m.registry.ListAll()
	if xe != nil {
		return nil, xe
	}
	active, _, xe := m.activeName(ctx, list)
	if xe != nil {
		return nil, xe
	}

	out := &ProfileListView{Profiles: []ProfileView{}, Active: active}
	for _, p := range list.Profiles {
		isActive := p.Name == active
		if opts.ActiveOnly && !isActive {
			continue
		}
		out.Profiles = append(out.Profiles, m.view(p, opts.ShowTokens, isActive))
	}
	return out, nil
}

// Show 返回单个 profile 的详情。
func (m *Manager) Show(ctx context.Context, name string, showToken bool) (*ProfileView, *errors.XError) {
	p, xe := m.registry.Get(name)
	if xe != nil {
		return nil, xe
	}
	list := &profile.List{Profiles: []profile.Profile{p}}
	active, _, xe := m.activeName(ctx, list)
	if xe != nil {
		return nil, xe
	}
	v := m.view(p, showToken, active == name)
	return &v, nil
}

// Delete 删除 profile 并从名称索引中移除。
func (m *Manager) Delete(name string) *errors.XError {
	if xe := m.registry.Remove(name); xe != nil {
		return xe
	}
	m.log.Info("profile deleted", "profile", name)
	return nil
}

// Rename 重命名 profile，保持其在列表中的位置。
func (m *Manager) Rename(oldName, newName string) *errors.XError {
	if xe := m.registry.Rename(oldName, newName); xe != nil {
		return xe
	}
	m.log.Info("profile renamed", "from", oldName, "to", newName)
	return nil
}

// Export 构造导出文档；includeTokens=false 时 token 被脱敏。
func (m *Manager) Export(includeTokens bool) (profile.ExportDocument, *errors.XError) {
	list, xe := m.registry.ListAll()
	if xe != nil {
		return nil, xe
	}
	return profile.BuildExport(list, includeTokens), nil
}

// Import 导入文档中的 profile。
func (m *Manager) Import(doc profile.ExportDocument, opts profile.ImportOptions) (*profile.ImportResult, *errors.XError) {
	if opts.Now == nil {
		opts.Now = m.now
	}
	res, xe := m.registry.Import(doc, opts)
	if xe != nil {
		return res, xe
	}
	m.log.Info("profiles imported", "imported", len(res.Imported), "skipped", len(res.Skipped))
	return res, nil
}
