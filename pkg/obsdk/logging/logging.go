package logging

import (
	"context"
	"fmt"
	"hash/crc32"
	"log/slog"
)

// Logger is what the binding logs through. Methods are called from SDK
// callback threads and finalizers as well as from callers.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New wraps an slog.Logger. A nil logger binds to slog.Default().
func New(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return sink{l}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return sink{slog.New(slog.DiscardHandler)}
}

type sink struct {
	l *slog.Logger
}

func (s sink) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.l.Log(ctx, level, msg, args...)
}

func (s sink) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s sink) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s sink) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s sink) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s sink) With(args ...any) Logger {
	return sink{s.l.With(args...)}
}

// Payload describes a binary blob by length and CRC-32 instead of content.
// Firmware images, calibration tables and preset files go through it.
func Payload(key string, data []byte) slog.Attr {
	return slog.Group(key,
		slog.Int("bytes", len(data)),
		slog.String("crc32", fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))),
	)
}
