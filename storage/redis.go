package storage

import (
	"context"
	"errors"
	"time"

	redis "github.com/go-redis/redis/v8"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/redis_client"
)

// RedisConfig configures a RedisProvider.
type RedisConfig struct {
	redis_client.Config `mapstructure:",squash" yaml:",inline"`

	// KeyPrefix is prepended to every document path.
	KeyPrefix string `mapstructure:"key-prefix" json:"keyPrefix" yaml:"key-prefix" default:"jsonmanager:"`
	// TTL expires written documents. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`
	// Timeout bounds each read or write.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" default:"5s"`
}

// RedisProvider stores each document as a string value under
// KeyPrefix+path.
type RedisProvider struct {
	client  redis.Cmdable
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisProvider wraps an existing client.
func NewRedisProvider(client redis.Cmdable, cfg RedisConfig) *RedisProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisProvider{
		client:  client,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.TTL,
		timeout: timeout,
	}
}

// NewRedisProviderFromConfig connects with redis_client.NewRedis.
func NewRedisProviderFromConfig(cfg RedisConfig) (*RedisProvider, error) {
	client, err := redis_client.NewRedis(cfg.Config)
	if err != nil {
		return nil, apperrors.NewIO("connect", cfg.Addr(), err)
	}
	return NewRedisProvider(client, cfg), nil
}

func (p *RedisProvider) key(path string) string {
	return p.prefix + path
}

func (p *RedisProvider) ReadText(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	text, err := p.client.Get(ctx, p.key(path)).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.NewNotFound(path).WithDetail("key", p.key(path))
	}
	if err != nil {
		return "", apperrors.NewIO("read", path, err).WithDetail("key", p.key(path))
	}
	return text, nil
}

func (p *RedisProvider) WriteText(path, content string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Set(ctx, p.key(path), content, p.ttl).Err(); err != nil {
		return apperrors.NewIO("write", path, err).WithDetail("key", p.key(path))
	}
	return nil
}

func (p *RedisProvider) Name() string {
	return DriverRedis
}

var _ Provider = (*RedisProvider)(nil)
