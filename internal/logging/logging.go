// Package logging은 설정값으로 log/slog 기본 로거를 구성합니다.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration
type Config struct {
	Level  string `mapstructure:"level"`  // DEBUG, INFO, WARN, ERROR
	Format string `mapstructure:"format"` // text, json
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("알 수 없는 로그 레벨입니다: %q", level)
	}
}

// New는 로거와 출력 대상을 닫는 함수를 반환합니다. stdout/stderr는 닫지 않습니다.
func New(cfg Config) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer
	closeFn := func() error { return nil }

	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("로그 파일을 열 수 없습니다 %q: %w", cfg.Output, err)
		}
		out = f
		closeFn = f.Close
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text", "":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("알 수 없는 로그 형식입니다: %q", cfg.Format)
	}

	return slog.New(handler), closeFn, nil
}

// Init은 New로 만든 로거를 slog 기본 로거로 설정합니다.
func Init(cfg Config) (*slog.Logger, func() error, error) {
	logger, closeFn, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
