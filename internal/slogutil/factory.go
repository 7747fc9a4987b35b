package slogutil

import (
	"io"
	"log/slog"

	"hsplit/internal/config"
	"hsplit/internal/paths"
)

// LoggerFactory builds the loggers for one hsplit invocation.
// Level precedence: CLI flags > config > warn.
type LoggerFactory struct {
	root     string
	config   *config.Config
	cliLevel slog.Level
	cliSet   bool
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliSet reports whether
// cliLevel came from an explicit -v, -q or --debug flag.
func NewLoggerFactory(root string, cfg *config.Config, cliLevel slog.Level, cliSet bool) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		root:     root,
		config:   cfg,
		cliLevel: cliLevel,
		cliSet:   cliSet,
	}
}

// CommandLogger returns a logger writing to w in the configured format.
// With logging.file enabled it also appends to <root>/.hsplit/logs/hsplit.log;
// a log file that cannot be opened is reported on w and skipped.
func (f *LoggerFactory) CommandLogger(w io.Writer) *slog.Logger {
	level := f.effectiveLevel()
	console := f.consoleHandler(w, level)
	if !f.config.Logging.File || f.root == "" {
		return slog.New(console)
	}

	fileLevel := level
	if fileLevel == LevelSilent {
		fileLevel = LevelFromString(f.config.Logging.Level)
	}
	file, err := f.fileHandler(fileLevel)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("file logging disabled", "path", paths.LogPath(f.root), "error", err)
		return logger
	}
	return slog.New(NewTeeHandler(console, file))
}

func (f *LoggerFactory) consoleHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if f.config.Logging.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return NewLineHandler(w, opts)
}

func (f *LoggerFactory) fileHandler(level slog.Level) (slog.Handler, error) {
	logger, closer, err := NewFileLoggerWithRotation(
		paths.LogPath(f.root),
		level,
		f.config.Logging.MaxSizeBytes(),
		f.config.Logging.MaxBackups,
	)
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, closer)
	return logger.Handler(), nil
}

func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliSet {
		return f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelWarn
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
