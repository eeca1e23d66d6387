package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// terminal is where LogInTerminal output goes.
var terminal io.Writer = os.Stderr

// levelWriter writes one level's entries to <Director>/<level>.log with
// lumberjack rotation.
type levelWriter struct {
	*lumberjack.Logger
}

func newLevelWriter(config Config, level string) *levelWriter {
	_ = os.MkdirAll(config.Director, 0755)
	return &levelWriter{
		Logger: &lumberjack.Logger{
			Filename:   filepath.Join(config.Director, level+".log"),
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
			LocalTime:  true,
		},
	}
}

// Sync implements zapcore.WriteSyncer. lumberjack writes through on every
// Write, so there is nothing to flush.
func (w *levelWriter) Sync() error {
	return nil
}

var (
	writerRegistry   []*levelWriter
	writerRegistryMu sync.Mutex
)

func registerWriter(w *levelWriter) {
	writerRegistryMu.Lock()
	defer writerRegistryMu.Unlock()
	writerRegistry = append(writerRegistry, w)
}

// CloseAllWriters closes every log file opened by NewLogger.
func CloseAllWriters() error {
	writerRegistryMu.Lock()
	defer writerRegistryMu.Unlock()

	var lastErr error
	for _, w := range writerRegistry {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	writerRegistry = nil
	return lastErr
}

var _ io.WriteCloser = (*levelWriter)(nil)
