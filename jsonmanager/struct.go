package jsonmanager

import (
	"reflect"
	"strings"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/json"
)

// StructGenerator generates JSON from a struct using its `json` tags.
// Zero fields with a `default` tag are written with their default. Value
// itself is left unchanged: defaults are applied to a shallow copy, so
// nested pointers are still shared with the copy.
type StructGenerator[T any] struct {
	Value *T
	// Indent pretty-prints with the given indent when not empty.
	Indent string
}

func (g *StructGenerator[T]) GenerateJSON(buf *strings.Builder) (string, error) {
	if g.Value == nil {
		return "", apperrors.NewInternal("struct generator has no value")
	}

	snapshot := *g.Value

	var (
		data []byte
		err  error
	)
	if g.Indent != "" {
		data, err = json.MarshalIndent(&snapshot, "", g.Indent)
	} else {
		data, err = json.Marshal(&snapshot)
	}
	if err != nil {
		return "", apperrors.NewInternal("encode value").WithInnerError(err)
	}

	buf.Write(data)
	return buf.String(), nil
}

// StructBuilder builds a T by decoding the JSON value into it and then
// checking its `validate` tags. Both a decode mismatch and a failed
// validation are UnexpectedShape errors.
type StructBuilder[T any] struct {
	// DisallowUnknownFields rejects object keys T does not declare.
	DisallowUnknownFields bool
}

func (b StructBuilder[T]) BuildObject(value json.Value) (T, error) {
	var out T

	decode := value.Decode
	if b.DisallowUnknownFields {
		decode = value.DecodeStrict
	}
	if err := decode(&out); err != nil {
		var zero T
		return zero, err
	}

	if target, ok := validationTarget(&out); ok {
		if err := validateShape(value.Path(), target); err != nil {
			var zero T
			return zero, err
		}
	}
	return out, nil
}

// validationTarget returns the struct pointer to validate for *T, where T
// is a struct or a pointer to one.
func validationTarget(ptr any) (any, bool) {
	rv := reflect.ValueOf(ptr).Elem()
	switch {
	case rv.Kind() == reflect.Struct:
		return ptr, true
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct:
		return rv.Interface(), true
	default:
		return nil, false
	}
}

// NewStructExporter exports *value through a StructGenerator.
func NewStructExporter[T any](value *T, indent string, opts ...Option) *Exporter {
	return NewExporter(&StructGenerator[T]{Value: value, Indent: indent}, opts...)
}

// NewStructImporter imports into T through a StructBuilder.
func NewStructImporter[T any](strict bool, opts ...Option) *Importer[T] {
	return NewImporter[T](StructBuilder[T]{DisallowUnknownFields: strict}, opts...)
}
