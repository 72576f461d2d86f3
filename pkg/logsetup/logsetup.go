// Package logsetup builds the decred/slog backend that cmd/heartsd uses:
// leveled console output, optionally duplicated to a rotating log file.
package logsetup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// maxLogRolls caps how many rotated log files accumulate before the
// oldest is dropped.
const maxLogRolls = 8

// Config controls where log output goes and how verbose it is.
type Config struct {
	// LogFile, if non-empty, is rotated at 32MiB via jrick/logrotate in
	// addition to being written to stderr.
	LogFile string
	// DebugLevel is one of slog's level names: trace, debug, info,
	// warn, error, critical, off.
	DebugLevel string
}

// Backend wraps a slog.Backend plus the rotator it owns, so callers can
// flush/close the file on shutdown.
type Backend struct {
	backend *slog.Backend
	rotator *rotator.Rotator
	level   slog.Level
}

// New builds a Backend from cfg. An empty LogFile writes to stderr only.
func New(cfg Config) (*Backend, error) {
	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		return nil, fmt.Errorf("logsetup: unknown debug level %q", cfg.DebugLevel)
	}

	var w io.Writer = os.Stderr
	var rot *rotator.Rotator
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
			return nil, fmt.Errorf("logsetup: create log dir: %w", err)
		}
		r, err := rotator.New(cfg.LogFile, 32*1024, false, maxLogRolls)
		if err != nil {
			return nil, fmt.Errorf("logsetup: create log rotator: %w", err)
		}
		rot = r
		w = io.MultiWriter(os.Stderr, rot)
	}

	return &Backend{backend: slog.NewBackend(w), rotator: rot, level: level}, nil
}

// Logger returns a subsystem logger tagged with name, e.g. "DISP", "XPRT".
func (b *Backend) Logger(name string) slog.Logger {
	log := b.backend.Logger(name)
	log.SetLevel(b.level)
	return log
}

// Close flushes and closes the underlying rotator, if one was created.
func (b *Backend) Close() {
	if b.rotator != nil {
		b.rotator.Close()
	}
}
