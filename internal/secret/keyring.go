package secret

import (
	stderrors "errors"
	"time"

	"github.com/zalando/go-keyring"
)

// ServiceName 是 profile 及 keyring: 引用使用的 keyring service。
// 沿用旧版本的名称，保证升级后仍能读到已有 profile。
const ServiceName = "claude-profile-manager"

// ErrNotFound 表示 keyring 中不存在该 service/account。
var ErrNotFound = stderrors.New("secret not found in keyring")

// ErrTimeout 表示 keyring 后端（dbus/Keychain/wincred）在限定时间内无响应。
var ErrTimeout = stderrors.New("timeout while accessing keyring")

// KeyringAPI 是对 OS keyring 的最小抽象，便于测试与跨平台。
// service 对应 keyring 的 service name，account 对应 user/account。
// 实现应在条目不存在时返回 ErrNotFound（Get/Delete）。
type KeyringAPI interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}

// Default 返回基于 zalando/go-keyring 的 OS keyring 实现。
func Default() KeyringAPI {
	return defaultKeyring()
}

func defaultKeyring() KeyringAPI {
	return &osKeyring{timeout: 3 * time.Second}
}

type osKeyring struct {
	timeout time.Duration
}

func (o *osKeyring) Get(service, account string) (string, error) {
	type result struct {
		val string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		val, err := keyring.Get(service, account)
		ch <- result{val, err}
	}()
	select {
	case res := <-ch:
		if res.err != nil {
			return "", mapErr(res.err)
		}
		return normalize(res.val), nil
	case <-time.After(o.timeout):
		return "", ErrTimeout
	}
}

func (o *osKeyring) Set(service, account, value string) error {
	return o.run(func() error { return keyring.Set(service, account, value) })
}

func (o *osKeyring) Delete(service, account string) error {
	return o.run(func() error { return keyring.Delete(service, account) })
}

func (o *osKeyring) run(fn func() error) error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	select {
	case err := <-ch:
		return mapErr(err)
	case <-time.After(o.timeout):
		return ErrTimeout
	}
}

func mapErr(err error) error {
	if stderrors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// MockInit 把 go-keyring 切换到进程内存后端，仅供测试使用。
func MockInit() {
	keyring.MockInit()
}

// MockInitWithError 让所有 keyring 操作返回 err，仅供测试使用。
func MockInitWithError(err error) {
	keyring.MockInitWithError(err)
}
