package profile

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/zx06/ccprofile/internal/errors"
	"github.com/zx06/ccprofile/internal/log"
	"github.com/zx06/ccprofile/internal/secret"
)

const (
	// IndexAccount 是名称索引（JSON 字符串数组）的 keyring account。
	IndexAccount = "profile_list"
	// accountPrefix + name 是单个 profile 的 keyring account。
	accountPrefix = "profile_"
)

// Options 配置 Registry。
type Options struct {
	Keyring     secret.KeyringAPI
	Service     string        // 默认 secret.ServiceName
	ConfigDir   string        // 锁文件所在目录
	LockTimeout time.Duration // 默认 5s
	Logger      *slog.Logger
}

// Registry 管理 keyring 中的 profile 记录与名称索引。
//
// keyring 没有枚举能力，因此名称索引是唯一的枚举来源：
// 索引中的每个名称都应能 Get 到，对外可见的 profile 都应出现在索引中。
// 索引的读改写在 advisory 文件锁内完成，跨进程串行。
type Registry struct {
	kr          secret.KeyringAPI
	service     string
	lockPath    string
	lockTimeout time.Duration
	log         *slog.Logger
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		kr:          opts.Keyring,
		service:     opts.Service,
		lockPath:    filepath.Join(opts.ConfigDir, LockFileName),
		lockTimeout: opts.LockTimeout,
		log:         log.OrDiscard(opts.Logger),
	}
	if r.kr == nil {
		r.kr = secret.Default()
	}
	if r.service == "" {
		r.service = secret.ServiceName
	}
	if r.lockTimeout <= 0 {
		r.lockTimeout = DefaultLockTimeout
	}
	return r
}

// LockPath 返回名称索引锁文件路径。
func (r *Registry) LockPath() string { return r.lockPath }

// Service 返回 keyring service 名称。
func (r *Registry) Service() string { return r.service }

func account(name string) string { return accountPrefix + name }

// Save 写入（或覆盖）profile 记录，不修改名称索引。
func (r *Registry) Save(p Profile) *errors.XError {
	if p.Name == "" {
		return errors.New(errors.CodeCfgInvalid, "profile name is required", nil)
	}
	p = p.Normalize()
	if !p.Provider.Valid() {
		return errors.New(errors.CodeCfgInvalid, "invalid provider", map[string]any{"provider": string(p.Provider)})
	}
	data, err := json.Marshal(p.toRecord())
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode profile", map[string]any{"profile": p.Name}, err)
	}
	if err := r.kr.Set(r.service, account(p.Name), string(data)); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to save profile", map[string]any{"profile": p.Name}, err)
	}
	r.log.Debug("saved profile", "profile", p.Name, "provider", p.Provider)
	return nil
}

// Get 读取并规范化 profile。不存在返回 CCP_PROFILE_NOT_FOUND，
// keyring 故障或记录损坏返回 CCP_STORAGE_FAILED。
func (r *Registry) Get(name string) (Profile, *errors.XError) {
	raw, err := r.kr.Get(r.service, account(name))
	if err != nil {
		if stderrors.Is(err, secret.ErrNotFound) {
			return Profile{}, errors.New(errors.CodeProfileNotFound, "profile not found", map[string]any{"profile": name})
		}
		return Profile{}, errors.Wrap(errors.CodeStorageFailed, "failed to read profile", map[string]any{"profile": name}, err)
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Profile{}, errors.Wrap(errors.CodeStorageFailed, "profile record is corrupt", map[string]any{"profile": name}, err)
	}
	return rec.toProfile(name), nil
}

// Exists 报告 profile 记录是否存在；存储故障时返回错误。
func (r *Registry) Exists(name string) (bool, *errors.XError) {
	_, xe := r.Get(name)
	if xe == nil {
		return true, nil
	}
	if xe.Code == errors.CodeProfileNotFound {
		return false, nil
	}
	return false, xe
}

// Delete 删除 profile 记录，不修改名称索引。
func (r *Registry) Delete(name string) *errors.XError {
	if err := r.kr.Delete(r.service, account(name)); err != nil {
		if stderrors.Is(err, secret.ErrNotFound) {
			return errors.New(errors.CodeProfileNotFound, "profile not found", map[string]any{"profile": name})
		}
		return errors.Wrap(errors.CodeStorageFailed, "failed to delete profile", map[string]any{"profile": name}, err)
	}
	r.log.Debug("deleted profile", "profile", name)
	return nil
}

// Names 读取名称索引；索引不存在时返回空列表。
func (r *Registry) Names() ([]string, *errors.XError) {
	raw, err := r.kr.Get(r.service, IndexAccount)
	if err != nil {
		if stderrors.Is(err, secret.ErrNotFound) {
			return []string{}, nil
		}
		return nil, errors.Wrap(errors.CodeStorageFailed, "failed to read profile index", nil, err)
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailed, "profile index is corrupt", nil, err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ListAll 按索引顺序返回所有可读取的 profile；缺失或损坏的条目被跳过。
func (r *Registry) ListAll() (*List, *errors.XError) {
	names, xe := r.Names()
	if xe != nil {
		return nil, xe
	}
	list := &List{Profiles: make([]Profile, 0, len(names))}
	for _, name := range names {
		p, xe := r.Get(name)
		if xe != nil {
			r.log.Debug("skipping unreadable profile", "profile", name, "code", xe.Code)
			continue
		}
		list.Profiles = append(list.Profiles, p)
	}
	return list, nil
}

// UpdateNameIndex 在锁内整体覆盖名称索引。
func (r *Registry) UpdateNameIndex(names []string) *errors.XError {
	return r.withIndexLock(func() *errors.XError {
		return r.writeIndex(names)
	})
}

// MutateNameIndex 在锁内读取当前索引、调用 fn 并写回结果，
// 避免两个进程基于过期的读取各自追加导致丢失。fn 返回错误时索引保持不变。
func (r *Registry) MutateNameIndex(fn func(names []string) ([]string, *errors.XError)) *errors.XError {
	return r.withIndexLock(func() *errors.XError {
		names, xe := r.Names()
		if xe != nil {
			return xe
		}
		next, xe := fn(slices.Clone(names))
		if xe != nil {
			return xe
		}
		if slices.Equal(names, next) {
			return nil
		}
		return r.writeIndex(next)
	})
}

func (r *Registry) writeIndex(names []string) *errors.XError {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to encode profile index", nil, err)
	}
	if err := r.kr.Set(r.service, IndexAccount, string(data)); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to write profile index", nil, err)
	}
	return nil
}

// Add 保存 profile 并确保其名称出现在索引末尾（已存在则保持原位置）。
func (r *Registry) Add(p Profile) *errors.XError {
	if xe := r.Save(p); xe != nil {
		return xe
	}
	return r.MutateNameIndex(func(names []string) ([]string, *errors.XError) {
		if slices.Contains(names, p.Name) {
			return names, nil
		}
		return append(names, p.Name), nil
	})
}

// Remove 删除 profile 记录并把名称移出索引。
// 记录已不存在但名称仍在索引中时，同样清理索引并返回 nil。
func (r *Registry) Remove(name string) *errors.XError {
	delErr := r.Delete(name)
	if delErr != nil && delErr.Code != errors.CodeProfileNotFound {
		return delErr
	}
	inIndex := false
	xe := r.MutateNameIndex(func(names []string) ([]string, *errors.XError) {
		i := slices.Index(names, name)
		if i < 0 {
			return names, nil
		}
		inIndex = true
		return slices.Delete(names, i, i+1), nil
	})
	if xe != nil {
		return xe
	}
	if delErr != nil && !inIndex {
		return delErr
	}
	return nil
}

// Rename 先保存新名称再删除旧名称，并在索引中原位替换，保持列表顺序。
func (r *Registry) Rename(oldName, newName string) *errors.XError {
	if newName == "" {
		return errors.New(errors.CodeCfgInvalid, "new profile name is required", nil)
	}
	p, xe := r.Get(oldName)
	if xe != nil {
		return xe
	}
	if oldName == newName {
		return nil
	}
	exists, xe := r.Exists(newName)
	if xe != nil {
		return xe
	}
	if exists {
		return errors.New(errors.CodeProfileExists, "profile already exists", map[string]any{"profile": newName})
	}

	p.Name = newName
	if xe := r.Save(p); xe != nil {
		return xe
	}
	if xe := r.Delete(oldName); xe != nil {
		// 回滚新记录
		if rb := r.Delete(newName); rb != nil {
			r.log.Warn("failed to roll back renamed profile", "profile", newName, "error", rb)
		}
		return xe
	}
	return r.MutateNameIndex(func(names []string) ([]string, *errors.XError) {
		if i := slices.Index(names, oldName); i >= 0 {
			names[i] = newName
			return names, nil
		}
		if slices.Contains(names, newName) {
			return names, nil
		}
		return append(names, newName), nil
	})
}
