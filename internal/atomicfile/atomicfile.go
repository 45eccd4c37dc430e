// Package atomicfile 提供 temp-file + fsync + rename 的原子写，
// 保证并发读者永远看不到写了一半的文件。
package atomicfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile 以原子方式写入 path：先在同目录创建临时文件（保证同一文件系统），
// 写入并 fsync 后设置权限，再 rename 覆盖目标。父目录不存在时自动创建（0700）。
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".ccprofile-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting permissions on temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	// rename 保留临时文件权限，但部分平台会受 umask 影响，这里再确认一次。
	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}

	success = true
	return nil
}

// Backup 把 path 复制到 path+".bak"（覆盖旧备份），返回备份路径。
func Backup(path string) (string, error) {
	bak := path + ".bak"
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for backup: %w", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	dst, err := os.OpenFile(bak, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("creating backup %s: %w", bak, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("copying %s to %s: %w", path, bak, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("closing backup %s: %w", bak, err)
	}
	return bak, nil
}
