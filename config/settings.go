package config

import (
	"errors"

	validatorV10 "github.com/go-playground/validator/v10"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/jsonmanager"
	"github.com/leeforge/jsonmanager/logging"
	"github.com/leeforge/jsonmanager/storage"
)

var validate = validatorV10.New()

// ExportSettings controls how struct documents are written and read.
type ExportSettings struct {
	// Indent pretty-prints exported documents. Empty writes compact JSON.
	Indent string `mapstructure:"indent" json:"indent" yaml:"indent"`
	// DisallowUnknownFields makes struct importers reject undeclared keys.
	DisallowUnknownFields bool `mapstructure:"disallow-unknown-fields" json:"disallowUnknownFields" yaml:"disallow-unknown-fields"`
}

// Settings is the configuration file layout:
//
//	storage:
//	  driver: local
//	  base-path: data
//	export:
//	  indent: "  "
//	logging:
//	  level: info
type Settings struct {
	Storage storage.Config `mapstructure:"storage" json:"storage" yaml:"storage"`
	Export  ExportSettings `mapstructure:"export" json:"export" yaml:"export"`
	Logging logging.Config `mapstructure:"logging" json:"logging" yaml:"logging"`
}

// Validate checks `validate` tags. Failures are invalid-config errors with
// a "fields" detail naming each bad field.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validatorV10.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInvalid("settings", nil, err.Error()).WithInnerError(err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Namespace()] = fe.Tag() + "=" + fe.Param()
	}
	first := fieldErrs[0]
	return apperrors.NewInvalid(first.Namespace(), first.Value(), "failed "+first.Tag()).
		WithDetail("fields", fields).
		WithInnerError(err)
}

// LoadSettings reads Settings with defaults applied and validates them.
func LoadSettings(opts ...ConfigOptions) (*Settings, error) {
	c, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := c.BindWithDefaults(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Provider builds the configured storage backend.
func (s *Settings) Provider() (storage.Provider, error) {
	return storage.New(s.Storage)
}

// Logger builds a logger from the logging section.
func (s *Settings) Logger() logging.Logger {
	return logging.NewLogger(s.Logging)
}

// Options converts the settings to exporter and importer options. A
// non-empty path becomes the remembered path.
func (s *Settings) Options(path string) ([]jsonmanager.Option, error) {
	provider, err := s.Provider()
	if err != nil {
		return nil, err
	}

	opts := []jsonmanager.Option{
		jsonmanager.WithStorage(provider),
		jsonmanager.WithLogger(s.Logger().Named("jsonmanager")),
	}
	if path != "" {
		opts = append(opts, jsonmanager.WithPath(path))
	}
	return opts, nil
}

// NewStructExporter exports *value with the configured storage and indent.
func NewStructExporter[T any](s *Settings, value *T, path string) (*jsonmanager.Exporter, error) {
	opts, err := s.Options(path)
	if err != nil {
		return nil, err
	}
	return jsonmanager.NewStructExporter(value, s.Export.Indent, opts...), nil
}

// NewStructImporter imports T with the configured storage and strictness.
func NewStructImporter[T any](s *Settings, path string) (*jsonmanager.Importer[T], error) {
	opts, err := s.Options(path)
	if err != nil {
		return nil, err
	}
	return jsonmanager.NewStructImporter[T](s.Export.DisallowUnknownFields, opts...), nil
}
