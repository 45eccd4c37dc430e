package profile

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/errors"
)

// ExportEntry 是导出文件中单个 profile 的形状。
type ExportEntry struct {
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
	Provider string         `json:"provider" yaml:"provider"`
	APIURL   string         `json:"api_url,omitempty" yaml:"api_url,omitempty"`
	Token    string         `json:"token" yaml:"token"`
}

// ExportDocument 以 profile 名称为 key。
type ExportDocument map[string]ExportEntry

// BuildExport 构造导出文档；includeTokens=false 时 token 被脱敏。
func BuildExport(list *List, includeTokens bool) ExportDocument {
	doc := make(ExportDocument, len(list.Profiles))
	for _, p := range list.Profiles {
		tok := p.Token
		if !includeTokens {
			tok = credential.Mask(tok, credential.DefaultVisible)
		}
		doc[p.Name] = ExportEntry{
			Metadata: p.Metadata,
			Provider: string(p.Provider),
			APIURL:   p.APIURL,
			Token:    tok,
		}
	}
	return doc
}

// Encode 按 json（默认）或 yaml 序列化导出文档。
func (d ExportDocument) Encode(format string) ([]byte, error) {
	if strings.EqualFold(format, "yaml") || strings.EqualFold(format, "yml") {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// ParseImport 先按 JSON 解析，失败再按 YAML 解析。顶层必须是对象。
func ParseImport(data []byte) (ExportDocument, *errors.XError) {
	var doc ExportDocument
	if jerr := json.Unmarshal(data, &doc); jerr == nil {
		if doc == nil {
			return nil, errors.New(errors.CodeCfgInvalid, "invalid import file format", nil)
		}
		return doc, nil
	}
	doc = nil
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.CodeCfgInvalid, "invalid import file format", nil, err)
	}
	if doc == nil {
		return nil, errors.New(errors.CodeCfgInvalid, "invalid import file format", nil)
	}
	return doc, nil
}

// ImportSkip.Reason 的取值。
const (
	SkipExists  = "already exists"
	SkipNoToken = "token masked, missing or invalid"
	SkipInvalid = "provided token invalid"
)

// PromptFunc 为 token 不可用的 profile 请求替换值。返回空串表示跳过该 profile。
type PromptFunc func(name, reason string) (string, error)

// ImportOptions 控制 Import 行为。
type ImportOptions struct {
	Prefix  string
	Replace bool // 覆盖已存在的同名 profile
	Prompt  PromptFunc
	Now     func() time.Time
}

// ImportSkip 记录一个未导入的 profile。
type ImportSkip struct {
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ImportResult 是 Import 的结果。
type ImportResult struct {
	Imported []string     `json:"imported" yaml:"imported"`
	Skipped  []ImportSkip `json:"skipped" yaml:"skipped"`
}

// Import 把导出文档写入 registry。每个 token 都重新校验；
// 脱敏、缺失或无效的 token 交给 opts.Prompt 替换，替换值同样需要通过校验。
// 成功导入的 profile 的 metadata 会加上 imported 时间戳。
func (r *Registry) Import(doc ExportDocument, opts ImportOptions) (*ImportResult, *errors.XError) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	res := &ImportResult{Imported: []string{}, Skipped: []ImportSkip{}}

	for _, name := range slices.Sorted(maps.Keys(doc)) {
		entry := doc[name]
		target := opts.Prefix + name

		if !opts.Replace {
			exists, xe := r.Exists(target)
			if xe != nil {
				return res, xe
			}
			if exists {
				res.Skipped = append(res.Skipped, ImportSkip{Name: target, Reason: SkipExists})
				continue
			}
		}

		provider, xe := credential.ParseProvider(entry.Provider)
		if xe != nil {
			res.Skipped = append(res.Skipped, ImportSkip{Name: target, Reason: SkipInvalid, Detail: xe.Message})
			continue
		}

		token, skip, xe := r.importToken(target, entry.Token, provider, opts.Prompt)
		if xe != nil {
			return res, xe
		}
		if skip != nil {
			res.Skipped = append(res.Skipped, *skip)
			continue
		}

		meta := maps.Clone(entry.Metadata)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["imported"] = now().Format(time.RFC3339)

		p := Profile{Name: target, Token: token, Provider: provider, APIURL: entry.APIURL, Metadata: meta}
		// 逐条入索引：后续条目失败提前返回时，已写入的记录仍可枚举。
		if xe := r.Add(p); xe != nil {
			return res, xe
		}
		res.Imported = append(res.Imported, target)
	}
	return res, nil
}

func (r *Registry) importToken(name, token string, provider credential.Provider, prompt PromptFunc) (string, *ImportSkip, *errors.XError) {
	reason := ""
	switch {
	case token == "":
		reason = "missing"
	case credential.IsMasked(token):
		reason = "masked"
	default:
		if xe := credential.Validate(token, provider); xe != nil {
			reason = "invalid: " + credential.Reason(xe)
		}
	}
	if reason == "" {
		return token, nil, nil
	}

	if prompt == nil {
		return "", &ImportSkip{Name: name, Reason: SkipNoToken, Detail: reason}, nil
	}
	replacement, err := prompt(name, reason)
	if err != nil {
		return "", nil, errors.AsOrWrap(err)
	}
	replacement = strings.TrimSpace(replacement)
	if replacement == "" {
		return "", &ImportSkip{Name: name, Reason: SkipNoToken, Detail: reason}, nil
	}
	if xe := credential.Validate(replacement, provider); xe != nil {
		return "", &ImportSkip{Name: name, Reason: SkipInvalid, Detail: credential.Reason(xe)}, nil
	}
	return replacement, nil, nil
}
