package storage

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

// OSSConfig configures an OSSProvider.
// Endpoint: oss-cn-hangzhou.aliyuncs.com
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access-key-id" json:"accessKeyId" yaml:"access-key-id"`
	AccessKeySecret string `mapstructure:"access-key-secret" json:"accessKeySecret" yaml:"access-key-secret"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	// Prefix is prepended to object keys, e.g. "exports/".
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
}

// ossBucket is the part of *oss.Bucket the provider uses.
type ossBucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	GetObject(objectKey string, options ...oss.Option) (io.ReadCloser, error)
}

// OSSProvider stores documents as Aliyun OSS objects.
type OSSProvider struct {
	bucket ossBucket
	prefix string
}

// NewOSSProviderFromConfig creates the OSS client and bucket handle.
func NewOSSProviderFromConfig(cfg OSSConfig) (*OSSProvider, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.NewInvalid("storage.oss.endpoint", cfg.Endpoint, "endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, apperrors.NewInvalid("storage.oss.bucket", cfg.Bucket, "bucket is required")
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, apperrors.NewInvalid("storage.oss.endpoint", cfg.Endpoint, err.Error()).WithInnerError(err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, apperrors.NewInvalid("storage.oss.bucket", cfg.Bucket, err.Error()).WithInnerError(err)
	}

	return &OSSProvider{bucket: bucket, prefix: cfg.Prefix}, nil
}

func (p *OSSProvider) objectKey(path string) string {
	// a leading slash would create an empty folder
	return p.prefix + strings.TrimPrefix(path, "/")
}

func (p *OSSProvider) ReadText(path string) (string, error) {
	key := p.objectKey(path)

	body, err := p.bucket.GetObject(key)
	if err != nil {
		var serviceErr oss.ServiceError
		if errors.As(err, &serviceErr) && serviceErr.StatusCode == http.StatusNotFound {
			return "", apperrors.NewNotFound(path).WithDetail("key", key).WithInnerError(err)
		}
		return "", apperrors.NewIO("read", path, err).WithDetail("key", key)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", apperrors.NewIO("read", path, err).WithDetail("key", key)
	}
	return string(data), nil
}

func (p *OSSProvider) WriteText(path, content string) error {
	key := p.objectKey(path)
	err := p.bucket.PutObject(key, strings.NewReader(content), oss.ContentType("application/json; charset=utf-8"))
	if err != nil {
		return apperrors.NewIO("write", path, err).WithDetail("key", key)
	}
	return nil
}

func (p *OSSProvider) Name() string {
	return DriverOSS
}

var _ Provider = (*OSSProvider)(nil)
