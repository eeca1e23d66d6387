package jsonmanager

import (
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/json"
	"github.com/leeforge/jsonmanager/logging"
	"github.com/leeforge/jsonmanager/storage"
)

type Point struct {
	X int
	Y int
}

// pointGenerator writes a Point field by field.
type pointGenerator struct {
	p *Point
}

func (g pointGenerator) GenerateJSON(buf *strings.Builder) (string, error) {
	buf.WriteString(`{"x":`)
	buf.WriteString(strconv.Itoa(g.p.X))
	buf.WriteString(`,"y":`)
	buf.WriteString(strconv.Itoa(g.p.Y))
	buf.WriteString(`}`)
	return buf.String(), nil
}

type pointBuilder struct{}

func (pointBuilder) BuildObject(value json.Value) (Point, error) {
	x, err := intField(value, "x")
	if err != nil {
		return Point{}, err
	}
	y, err := intField(value, "y")
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func intField(value json.Value, key string) (int, error) {
	field, err := value.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := field.Int()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// recordingStorage counts calls and can be made to fail.
type recordingStorage struct {
	docs     map[string]string
	reads    int
	writes   int
	failWith error
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{docs: map[string]string{}}
}

func (s *recordingStorage) ReadText(path string) (string, error) {
	s.reads++
	if s.failWith != nil {
		return "", apperrors.NewIO("read", path, s.failWith)
	}
	text, ok := s.docs[path]
	if !ok {
		return "", apperrors.NewNotFound(path)
	}
	return text, nil
}

func (s *recordingStorage) WriteText(path, content string) error {
	s.writes++
	if s.failWith != nil {
		return apperrors.NewIO("write", path, s.failWith)
	}
	s.docs[path] = content
	return nil
}

func (s *recordingStorage) Name() string {
	return "recording"
}

func newMemStorage(t *testing.T) (*storage.LocalProvider, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	p, err := storage.NewLocalProvider("/docs", storage.WithFs(fsys))
	require.NoError(t, err)
	return p, fsys
}

func newObservedLogger() (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.FromZap(zap.New(core)), logs
}
