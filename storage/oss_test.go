package storage

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

type fakeBucket struct {
	objects map[string][]byte
	putErr  error
}

func (b *fakeBucket) PutObject(objectKey string, reader io.Reader, _ ...oss.Option) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b.objects[objectKey] = data
	return nil
}

func (b *fakeBucket) GetObject(objectKey string, _ ...oss.Option) (io.ReadCloser, error) {
	data, ok := b.objects[objectKey]
	if !ok {
		return nil, oss.ServiceError{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestOSSProvider_WriteThenRead(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}}
	p := &OSSProvider{bucket: bucket, prefix: "exports/"}

	require.NoError(t, p.WriteText("/points/a.json", `{"x":3,"y":4}`))
	assert.Contains(t, bucket.objects, "exports/points/a.json")

	text, err := p.ReadText("points/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"x":3,"y":4}`, text)
}

func TestOSSProvider_Errors(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}, putErr: errors.New("connection reset")}
	p := &OSSProvider{bucket: bucket}

	_, err := p.ReadText("missing.json")
	require.Error(t, err)
	assert.True(t, apperrors.IsIO(err))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.FromError(err).Code)

	err = p.WriteText("a.json", `{}`)
	require.Error(t, err)
	assert.True(t, apperrors.IsIO(err))
	assert.Equal(t, apperrors.CodeIOFailed, apperrors.FromError(err).Code)
}

func TestNewOSSProviderFromConfig_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewOSSProviderFromConfig(OSSConfig{Bucket: "b"})
	assert.True(t, apperrors.IsInvalid(err))

	_, err = NewOSSProviderFromConfig(OSSConfig{Endpoint: "oss-cn-hangzhou.aliyuncs.com"})
	assert.True(t, apperrors.IsInvalid(err))
}
