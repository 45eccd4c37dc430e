package config

// File 表示 config.yaml 的配置结构。
// 约束：配置优先级为 CLI > ENV > Config。
type File struct {
	Format         string       `yaml:"format,omitempty"`
	ActiveTarget   TargetConfig `yaml:"active_target,omitempty"`
	SettingsPath   string       `yaml:"settings_path,omitempty"`
	UpdateSettings *bool        `yaml:"update_settings,omitempty"` // 默认 true
	DefaultProfile string       `yaml:"default_profile,omitempty"`
	MaskTokens     *bool        `yaml:"mask_tokens,omitempty"` // 默认 true
	MCP            MCPConfig    `yaml:"mcp,omitempty"`
}

// TargetConfig 描述当前凭据的写入目标。
type TargetConfig struct {
	Type string `yaml:"type,omitempty"` // keychain | file | shell；空为平台默认
	Path string `yaml:"path,omitempty"` // 凭据文件路径，支持 ~
}

type MCPConfig struct {
	Transport string        `yaml:"transport,omitempty"` // stdio | streamable_http
	HTTP      MCPHTTPConfig `yaml:"http,omitempty"`
}

type MCPHTTPConfig struct {
	Addr                string `yaml:"addr,omitempty"`
	AuthToken           string `yaml:"auth_token,omitempty"` // 支持 keyring:xxx 引用
	AllowPlaintextToken bool   `yaml:"allow_plaintext_token,omitempty"`
}

type Resolved struct {
	ConfigPath string // 实际读取的配置文件；未找到时为空
	ConfigDir  string // 配置目录（锁文件、init 写入位置）

	Format         string
	TargetType     string
	TargetPath     string
	SettingsPath   string
	UpdateSettings bool
	DefaultProfile string
	MaskTokens     bool

	File File
}

type Options struct {
	// ConfigPath: 若非空，则只读取该文件（不存在报错）。
	ConfigPath string

	// CLI
	CLIFormat             string
	CLIFormatSet          bool
	CLICredentialsPath    string
	CLICredentialsPathSet bool

	// ENV（由调用方注入，便于测试）
	EnvFormat          string
	EnvCredentialsPath string
	EnvSettingsPath    string

	// HomeDir 用于默认路径计算（为空则自动探测）。
	HomeDir string

	// XDGConfigHome 非空时优先于 ~/.config。
	XDGConfigHome string
}
