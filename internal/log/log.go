package log

import (
	"io"
	"log/slog"
)

// New 返回写入到 w 的 slog.Logger；verbose=true 时 level=DEBUG，否则 INFO。
// 注意：stdout=数据（含 --eval 的 export 语句），日志应始终写 stderr（由调用方传入）。
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Discard 返回丢弃所有输出的 logger，供 core 包在调用方未注入 logger 时使用。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard 在 l 为 nil 时返回 Discard()。
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
