package activate

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"
)

// KeychainService 是 CLI 客户端在 macOS keychain 中使用的固定 service 名。
const KeychainService = "Claude Code-credentials"

// securityItemNotFound 是 security(1) 在条目不存在时的退出码。
const securityItemNotFound = 44

var (
	ErrKeychainNotFound    = stderrors.New("keychain entry not found")
	ErrKeychainUnavailable = stderrors.New("macOS security tool not available")
)

// Keychain 是对 macOS keychain 中客户端凭据条目的最小抽象。
// Read 在条目不存在时返回 ErrKeychainNotFound；Delete 对不存在的条目返回 nil。
type Keychain interface {
	Available() bool
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, value string) error
	Delete(ctx context.Context) error
}

// SecurityCLI 通过 /usr/bin/security 访问 keychain。
type SecurityCLI struct {
	Bin     string
	Account string
}

// NewSecurityCLI 使用 $USER（为空时取当前系统用户）作为 account。
func NewSecurityCLI() *SecurityCLI {
	acct := os.Getenv("USER")
	if acct == "" {
		if u, err := user.Current(); err == nil {
			acct = u.Username
		}
	}
	return &SecurityCLI{Bin: "security", Account: acct}
}

func (s *SecurityCLI) Available() bool {
	_, err := exec.LookPath(s.Bin)
	return err == nil
}

func (s *SecurityCLI) Read(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "find-generic-password", "-a", s.Account, "-s", KeychainService, "-w")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (s *SecurityCLI) Write(ctx context.Context, value string) error {
	_, err := s.run(ctx, "add-generic-password", "-a", s.Account, "-s", KeychainService, "-w", value)
	return err
}

func (s *SecurityCLI) Delete(ctx context.Context) error {
	_, err := s.run(ctx, "delete-generic-password", "-a", s.Account, "-s", KeychainService)
	if stderrors.Is(err, ErrKeychainNotFound) {
		return nil
	}
	return err
}

func (s *SecurityCLI) run(ctx context.Context, args ...string) (string, error) {
	if !s.Available() {
		return "", ErrKeychainUnavailable
	}
	cmd := exec.CommandContext(ctx, s.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && exitErr.ExitCode() == securityItemNotFound {
			return "", ErrKeychainNotFound
		}
		// 不回显参数：add-generic-password 的参数中含有凭据
		return "", fmt.Errorf("security %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
