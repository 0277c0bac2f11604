package config

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel 把 "debug" / "info" / "warn" / "error" 转成 slog.Level
// 无法识别的值退回 Warn
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// SetupLogger 安装全局的文本 handler，输出到 w (通常是 stderr)
func SetupLogger(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}
