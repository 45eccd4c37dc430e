package profile

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/zx06/ccprofile/internal/errors"
)

const (
	// LockFileName 位于配置目录下，仅用于名称索引的互斥。
	LockFileName       = ".profile_list.lock"
	DefaultLockTimeout = 5 * time.Second
	lockRetryInterval  = 100 * time.Millisecond
)

// withIndexLock 在持有名称索引的排他 advisory 锁时执行 fn。
// 超时返回 CCP_LOCK_TIMEOUT，fn 不会被调用。
func (r *Registry) withIndexLock(fn func() *errors.XError) *errors.XError {
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o700); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "failed to create config directory", map[string]any{"path": filepath.Dir(r.lockPath)}, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.lockTimeout)
	defer cancel()

	fl := flock.New(r.lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil || !locked {
		details := map[string]any{"path": r.lockPath, "timeout": r.lockTimeout.String()}
		if err != nil && ctx.Err() == nil {
			return errors.Wrap(errors.CodeStorageFailed, "failed to acquire profile index lock", details, err)
		}
		return errors.Wrap(errors.CodeLockTimeout, "timed out waiting for profile index lock", details, err)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			r.log.Warn("failed to release profile index lock", "path", r.lockPath, "error", err)
		}
	}()

	r.log.Debug("acquired profile index lock", "path", r.lockPath)
	return fn()
}
