package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"exdir/pkg/types"
)

// =============================================================================
// 调用日志 (结构化日志)
// =============================================================================

// logCall 统一的日志打印逻辑
// 调用方错误 (路径不对、类型不对) 记为 Warn，存储或格式损坏记为 Error
func logCall(ctx context.Context, method, path string, start time.Time, err error) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		if errors.Is(err, types.ErrIO) || errors.Is(err, types.ErrFormat) {
			level = slog.LevelError
		}
	}

	slog.Log(ctx, level, "exdir call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Duration("dur", time.Since(start)),
		slog.String("err", errToString(err)),
	)
}

func errToString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
