// Package storage reads and writes whole JSON documents by path.
//
// A Provider is the only I/O an exporter or importer performs. Every
// failure is returned as an IO error from the errors package, wrapping the
// underlying cause, and is never retried.
package storage

import (
	"strings"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

// Provider stores text documents addressed by path.
type Provider interface {
	// ReadText returns the entire content stored at path.
	ReadText(path string) (string, error)
	// WriteText replaces the content stored at path.
	WriteText(path, content string) error
	// Name identifies the backend in logs.
	Name() string
}

const (
	DriverLocal = "local"
	DriverRedis = "redis"
	DriverOSS   = "oss"
)

// Config selects and configures a Provider.
type Config struct {
	Driver   string      `mapstructure:"driver" json:"driver" yaml:"driver" default:"local" validate:"oneof=local redis oss"`
	BasePath string      `mapstructure:"base-path" json:"basePath" yaml:"base-path"`
	Encoding string      `mapstructure:"encoding" json:"encoding" yaml:"encoding" default:"utf-8"`
	Redis    RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
	OSS      OSSConfig   `mapstructure:"oss" json:"oss" yaml:"oss"`
}

// New builds the Provider named by cfg.Driver. An empty driver means local.
func New(cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverLocal:
		p, err = NewLocalProvider(cfg.BasePath, WithEncoding(cfg.Encoding))
	case DriverRedis:
		p, err = NewRedisProviderFromConfig(cfg.Redis)
	case DriverOSS:
		p, err = NewOSSProviderFromConfig(cfg.OSS)
	default:
		return nil, apperrors.NewInvalid("storage.driver", cfg.Driver, "expected local, redis or oss")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
