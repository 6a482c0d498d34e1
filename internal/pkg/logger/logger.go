// Package logger 统一构造进程内使用的 slog.Logger。
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// NewDefault 按日志级别字符串创建默认的文本日志记录器。
//
// 未知级别按 info 处理。
func NewDefault(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
