package app

import (
	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/profile"
)

// ProfileView 是 profile 的展示形态，token 默认脱敏。
type ProfileView struct {
	Name             string              `json:"name" yaml:"name"`
	Provider         credential.Provider `json:"provider" yaml:"provider"`
	APIURL           string              `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	Kind             string              `json:"kind" yaml:"kind"`
	Token            string              `json:"token" yaml:"token"`
	Description      string              `json:"description,omitempty" yaml:"description,omitempty"`
	Created          string              `json:"created,omitempty" yaml:"created,omitempty"`
	Metadata         map[string]any      `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Active           bool                `json:"active" yaml:"active"`
	Expired          bool                `json:"expired,omitempty" yaml:"expired,omitempty"`
	MinutesRemaining *int                `json:"minutes_remaining,omitempty" yaml:"minutes_remaining,omitempty"`
}

func (m *Manager) view(p profile.Profile, showToken, active bool) ProfileView {
	cred := credential.Classify(p.Token)
	v := ProfileView{
		Name:        p.Name,
		Provider:    p.Provider,
		APIURL:      p.APIURL,
		Kind:        cred.Kind.String(),
		Token:       p.Token,
		Description: p.Description(),
		Created:     p.Created(),
		Metadata:    p.Metadata,
		Active:      active,
	}
	if !showToken {
		v.Token = credential.Mask(p.Token, credential.DefaultVisible)
	}
	if cred.IsOAuth() {
		expired, minutes := cred.Grant.Expiry(m.now())
		v.Expired = expired
		v.MinutesRemaining = &minutes
	}
	return v
}

// ToTableData 实现 output.TableFormatter。
func (v *ProfileView) ToTableData() ([]string, []map[string]any, bool) {
	return profileColumns, []map[string]any{v.row()}, true
}

var profileColumns = []string{"active", "name", "provider", "kind", "description", "api_url", "created", "token"}

func (v *ProfileView) row() map[string]any {
	mark := ""
	if v.Active {
		mark = "*"
	}
	kind := v.Kind
	if v.Expired {
		kind += " (expired)"
	}
	return map[string]any{
		"active":      mark,
		"name":        v.Name,
		"provider":    string(v.Provider),
		"kind":        kind,
		"description": v.Description,
		"api_url":     v.APIURL,
		"created":     v.Created,
		"token":       v.Token,
	}
}

// ProfileListView 是 List 的输出。
type ProfileListView struct {
	Profiles []ProfileView `json:"profiles" yaml:"profiles"`
	Active   string        `json:"active,omitempty" yaml:"active,omitempty"`
}

// ToTableData 实现 output.TableFormatter。
func (l *ProfileListView) ToTableData() ([]string, []map[string]any, bool) {
	rows := make([]map[string]any, 0, len(l.Profiles))
	for i := range l.Profiles {
		rows = append(rows, l.Profiles[i].row())
	}
	return profileColumns, rows, true
}
