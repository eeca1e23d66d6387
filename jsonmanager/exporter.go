package jsonmanager

import (
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

// Generator produces the JSON text of one object shape.
//
// GenerateJSON may build on buf, which is handed over empty by Exporter,
// and must return the complete text. The text must be a valid JSON
// document; the Exporter does not check it.
type Generator interface {
	GenerateJSON(buf *strings.Builder) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(buf *strings.Builder) (string, error)

func (f GeneratorFunc) GenerateJSON(buf *strings.Builder) (string, error) {
	return f(buf)
}

// Exporter writes the text of a Generator to storage.
//
// It remembers the last path it was given. An Exporter is not safe for
// concurrent use.
type Exporter struct {
	target
	generator Generator
}

// NewExporter returns an Exporter for generator.
func NewExporter(generator Generator, opts ...Option) *Exporter {
	return &Exporter{
		target:    newTarget(opts),
		generator: generator,
	}
}

// GenerateJSONInto runs the generator with buf.
func (e *Exporter) GenerateJSONInto(buf *strings.Builder) (string, error) {
	if e.generator == nil {
		return "", apperrors.NewInternal("exporter has no generator")
	}
	return e.generator.GenerateJSON(buf)
}

// GenerateJSON runs the generator with a fresh buffer.
func (e *Exporter) GenerateJSON() (string, error) {
	return e.GenerateJSONInto(&strings.Builder{})
}

// ExportToFile writes the generated text to path, replacing the whole
// document. A non-empty path becomes the remembered path; an empty one
// uses the remembered path. With neither, it fails with a NoFileConfigured
// error before generating or writing anything. A generator failure also
// leaves storage untouched.
func (e *Exporter) ExportToFile(path string) error {
	resolved, err := e.resolve("export", path)
	if err != nil {
		return err
	}

	text, err := e.GenerateJSON()
	if err != nil {
		e.logger.Warn("export.failed", append(e.fields(resolved), zap.Error(err))...)
		return err
	}

	if err := e.storage.WriteText(resolved, text); err != nil {
		e.logger.Warn("export.failed", append(e.fields(resolved), zap.Error(err))...)
		return err
	}

	e.logger.Debug("export.done", append(e.fields(resolved), zap.Int("bytes", len(text)))...)
	return nil
}
