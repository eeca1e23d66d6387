package jsonmanager

import (
	"go.uber.org/zap"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/logging"
	"github.com/leeforge/jsonmanager/storage"
)

// Option configures an Exporter or an Importer.
type Option func(*target)

// WithPath sets the remembered path used when a call passes an empty one.
func WithPath(path string) Option {
	return func(t *target) {
		t.path = path
	}
}

// WithStorage replaces the default local filesystem provider.
func WithStorage(provider storage.Provider) Option {
	return func(t *target) {
		if provider != nil {
			t.storage = provider
		}
	}
}

// WithLogger sets the logger for diagnostics. The default is the global
// logger named "jsonmanager".
func WithLogger(logger logging.Logger) Option {
	return func(t *target) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// target is the state shared by Exporter and Importer: the remembered
// path and where documents live.
type target struct {
	path    string
	storage storage.Provider
	logger  logging.Logger
}

func newTarget(opts []Option) target {
	t := target{}
	for _, opt := range opts {
		opt(&t)
	}
	if t.storage == nil {
		t.storage = defaultStorage()
	}
	if t.logger == nil {
		t.logger = logging.Named("jsonmanager")
	}
	return t
}

func defaultStorage() storage.Provider {
	p, err := storage.NewLocalProvider("")
	if err != nil {
		// utf-8 with no base path cannot fail
		panic(err)
	}
	return p
}

// resolve picks path when given, remembering it, and otherwise falls back
// to the remembered path. It fails before any I/O when neither exists.
func (t *target) resolve(operation, path string) (string, error) {
	if path != "" {
		t.path = path
	}
	if t.path == "" {
		err := apperrors.NewNoFileConfigured(operation)
		t.logger.Warn(operation+".failed", zap.Error(err))
		return "", err
	}
	return t.path, nil
}

func (t *target) fields(path string) []zap.Field {
	return []zap.Field{
		zap.String("path", path),
		zap.String("storage", t.storage.Name()),
	}
}

// Path returns the remembered path, or "" when none is set.
func (t *target) Path() string {
	return t.path
}

// SetPath replaces the remembered path. An empty path clears it.
func (t *target) SetPath(path string) {
	t.path = path
}

// Storage returns the provider documents are read from or written to.
func (t *target) Storage() storage.Provider {
	return t.storage
}
