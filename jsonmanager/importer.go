package jsonmanager

import (
	"go.uber.org/zap"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/json"
)

// Builder constructs a T from a parsed JSON value.
//
// BuildObject returns an UnexpectedShape error when value lacks the keys
// or types T needs. Errors from json.Value accessors already have that
// type and can be returned as they are.
type Builder[T any] interface {
	BuildObject(value json.Value) (T, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc[T any] func(value json.Value) (T, error)

func (f BuilderFunc[T]) BuildObject(value json.Value) (T, error) {
	return f(value)
}

// Importer reads JSON text from storage and turns it into a T with a
// Builder.
//
// It remembers the last path it was given. An Importer is not safe for
// concurrent use.
type Importer[T any] struct {
	target
	builder Builder[T]
	parser  json.Parser
}

// NewImporter returns an Importer for builder.
func NewImporter[T any](builder Builder[T], opts ...Option) *Importer[T] {
	return &Importer[T]{
		target:  newTarget(opts),
		builder: builder,
		parser:  json.DefaultParser,
	}
}

// BuildObjectFromValue hands value to the builder. Builder errors are
// returned unchanged.
func (i *Importer[T]) BuildObjectFromValue(value json.Value) (T, error) {
	if i.builder == nil {
		var zero T
		return zero, apperrors.NewInternal("importer has no builder")
	}
	return i.builder.BuildObject(value)
}

// BuildObject parses text and builds a T from it. Text that is not a
// well-formed JSON document fails with a CannotParse error; a document of
// the wrong shape fails with whatever the builder returns.
func (i *Importer[T]) BuildObject(text string) (T, error) {
	value, err := i.parser.Parse(text)
	if err != nil {
		var zero T
		return zero, err
	}
	return i.BuildObjectFromValue(value)
}

// ImportFromFile reads the whole document at path and builds a T from it.
// Path handling matches Exporter.ExportToFile.
func (i *Importer[T]) ImportFromFile(path string) (T, error) {
	var zero T

	resolved, err := i.resolve("import", path)
	if err != nil {
		return zero, err
	}

	text, err := i.storage.ReadText(resolved)
	if err != nil {
		i.logger.Warn("import.failed", append(i.fields(resolved), zap.Error(err))...)
		return zero, err
	}

	obj, err := i.BuildObject(text)
	if err != nil {
		i.logger.Warn("import.failed", append(i.fields(resolved), zap.Error(err))...)
		return zero, err
	}

	i.logger.Debug("import.done", append(i.fields(resolved), zap.Int("bytes", len(text)))...)
	return obj, nil
}
