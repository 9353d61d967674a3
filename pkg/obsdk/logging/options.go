package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Output selects where NewWithOptions writes records.
type Output int

const (
	OutputNone Output = iota
	OutputConsole
	OutputFile
	OutputAll
)

// Defaults applied by NewWithOptions to zero-valued fields.
const (
	DefaultFilePath   = "obsdk.log"
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
	maxBackupsLimit   = 10
)

// Options configures NewWithOptions.
type Options struct {
	// Level is the minimum level written. The zero value is slog.LevelInfo.
	Level slog.Level

	// Output selects console, file, both or nothing.
	Output Output

	// FilePath is the active log file. Rotated files are kept next to it.
	FilePath string

	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int

	// MaxBackups is the number of rotated files retained, at most 10.
	MaxBackups int

	// JSON switches the record format from text to JSON.
	JSON bool

	// Console overrides the console writer. Defaults to os.Stderr.
	Console io.Writer
}

func (o Options) withDefaults() Options {
	if o.FilePath == "" {
		o.FilePath = DefaultFilePath
	}
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = DefaultMaxSizeMB
	}
	switch {
	case o.MaxBackups <= 0:
		o.MaxBackups = DefaultMaxBackups
	case o.MaxBackups > maxBackupsLimit:
		o.MaxBackups = maxBackupsLimit
	}
	if o.Console == nil {
		o.Console = os.Stderr
	}
	return o
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewWithOptions builds a slog-backed Logger writing to the configured
// outputs. The returned Closer releases the log file and must be closed by
// the caller; it is a no-op when no file is written.
func NewWithOptions(opts Options) (Logger, io.Closer, error) {
	opts = opts.withDefaults()

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)

	switch opts.Output {
	case OutputNone:
		return Discard(), closer, nil
	case OutputConsole:
		w = opts.Console
	case OutputFile, OutputAll:
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		closer = file
		w = file
		if opts.Output == OutputAll {
			w = io.MultiWriter(opts.Console, file)
		}
	default:
		return nil, nil, errors.New("logging: unknown output")
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return New(slog.New(h)), closer, nil
}
