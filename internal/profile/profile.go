// Package profile 在 OS keyring 中保存命名凭据（profile），
// 并通过单独的名称索引条目提供有序枚举。
package profile

import (
	"github.com/zx06/ccprofile/internal/credential"
)

// Profile 是一条命名凭据记录。Token 对存储层不透明，语义由 credential 包解释。
type Profile struct {
	Name     string              `json:"name" yaml:"name"`
	Token    string              `json:"token" yaml:"token"`
	Provider credential.Provider `json:"provider" yaml:"provider"`
	APIURL   string              `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	Metadata map[string]any      `json:"metadata" yaml:"metadata"`
}

// record 是写入 keyring 的 JSON 形状（名称在 account 中，不重复存储）。
type record struct {
	Token    string         `json:"token"`
	Provider string         `json:"provider,omitempty"`
	APIURL   string         `json:"api_url,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

// Normalize 补全缺省字段：provider 为空视为 claude；zai 未设置 api_url 时使用默认端点。
func (p Profile) Normalize() Profile {
	if p.Provider == "" {
		p.Provider = credential.ProviderClaude
	}
	if p.Provider == credential.ProviderZAI && p.APIURL == "" {
		p.APIURL = credential.ZAIDefaultAPIURL
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	return p
}

// Description 返回 metadata.description（不存在时为空）。
func (p Profile) Description() string {
	s, _ := p.Metadata["description"].(string)
	return s
}

// Created 返回 metadata.created（不存在时为空）。
func (p Profile) Created() string {
	s, _ := p.Metadata["created"].(string)
	return s
}

func (p Profile) toRecord() record {
	return record{
		Token:    p.Token,
		Provider: string(p.Provider),
		APIURL:   p.APIURL,
		Metadata: p.Metadata,
	}
}

func (r record) toProfile(name string) Profile {
	return Profile{
		Name:     name,
		Token:    r.Token,
		Provider: credential.Provider(r.Provider),
		APIURL:   r.APIURL,
		Metadata: r.Metadata,
	}.Normalize()
}

// List 是按名称索引顺序排列的 profile 集合。
type List struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// Names 返回 list 中的名称（保持顺序）。
func (l *List) Names() []string {
	names := make([]string, 0, len(l.Profiles))
	for _, p := range l.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Find 按名称查找。
func (l *List) Find(name string) (Profile, bool) {
	for _, p := range l.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}
