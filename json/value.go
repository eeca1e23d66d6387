package json

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

var errEmptyDocument = errors.New("empty document")

// Kind is the JSON type of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a parsed JSON document, or a node inside one.
//
// Accessors that demand a shape (Get, Index, Str, Int, ...) fail with an
// UnexpectedShape error naming the node path, so a Builder can usually
// return accessor errors as they are.
type Value struct {
	raw   any
	path  string
	valid bool
}

// Parse parses text as a single JSON document. Malformed text fails with a
// CannotParse error; it never yields an empty Value.
func Parse(text string) (Value, error) {
	if strings.TrimSpace(text) == "" {
		return Value{}, apperrors.NewCannotParse(errEmptyDocument).WithDetail("length", len(text))
	}
	data := []byte(text)

	// jsoniter accepts some malformed numbers (01, 1., 1e); the grammar is
	// checked strictly first.
	var syntax stdjson.RawMessage
	if err := stdjson.Unmarshal(data, &syntax); err != nil {
		appErr := apperrors.NewCannotParse(err).WithDetail("length", len(data))
		var syntaxErr *stdjson.SyntaxError
		if errors.As(err, &syntaxErr) {
			appErr.WithDetail("offset", syntaxErr.Offset)
		}
		return Value{}, appErr
	}

	var raw any
	if err := parser.Unmarshal(data, &raw); err != nil {
		return Value{}, apperrors.NewCannotParse(err).WithDetail("length", len(data))
	}

	return Value{raw: raw, path: "$", valid: true}, nil
}

// MustParse is Parse for literals in tests and examples. It panics on error.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// ValueOf wraps an already decoded tree (maps, slices, strings, numbers,
// bools, nil) as a Value.
func ValueOf(raw any) Value {
	return Value{raw: normalize(raw), path: "$", valid: true}
}

func normalize(raw any) any {
	switch t := raw.(type) {
	case int:
		return stdjson.Number(strconv.Itoa(t))
	case int64:
		return stdjson.Number(strconv.FormatInt(t, 10))
	case float64:
		return stdjson.Number(strconv.FormatFloat(t, 'g', -1, 64))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = normalize(v)
		}
		return out
	default:
		return raw
	}
}

// Path is the location of this node, e.g. `$.points[2].x`.
func (v Value) Path() string {
	return v.path
}

// Interface returns the underlying decoded tree.
func (v Value) Interface() any {
	return v.raw
}

func (v Value) Kind() Kind {
	if !v.valid {
		return KindInvalid
	}
	switch v.raw.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case stdjson.Number, float64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindInvalid
	}
}

func (v Value) IsNull() bool {
	return v.Kind() == KindNull
}

func (v Value) shapeError(expected string) error {
	return apperrors.NewUnexpectedShape(v.path, expected, v.Kind().String())
}

func (v Value) object() (map[string]any, error) {
	m, ok := v.raw.(map[string]any)
	if !ok || !v.valid {
		return nil, v.shapeError("object")
	}
	return m, nil
}

// Lookup returns the member at key. ok is false when v is not an object or
// the key is absent.
func (v Value) Lookup(key string) (Value, bool) {
	m, err := v.object()
	if err != nil {
		return Value{}, false
	}
	raw, ok := m[key]
	if !ok {
		return Value{}, false
	}
	return Value{raw: raw, path: v.path + "." + key, valid: true}, true
}

// Has reports whether v is an object with key.
func (v Value) Has(key string) bool {
	_, ok := v.Lookup(key)
	return ok
}

// Get returns the required member at key.
func (v Value) Get(key string) (Value, error) {
	if _, err := v.object(); err != nil {
		return Value{}, err
	}
	child, ok := v.Lookup(key)
	if !ok {
		return Value{}, apperrors.NewUnexpectedShape(v.path+"."+key, "present key", "missing").
			WithDetail("key", key)
	}
	return child, nil
}

// Keys returns the member names of an object in sorted order.
func (v Value) Keys() ([]string, error) {
	m, err := v.object()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (v Value) array() ([]any, error) {
	a, ok := v.raw.([]any)
	if !ok || !v.valid {
		return nil, v.shapeError("array")
	}
	return a, nil
}

// Len returns the number of elements of an array or members of an object.
func (v Value) Len() (int, error) {
	if m, ok := v.raw.(map[string]any); ok && v.valid {
		return len(m), nil
	}
	a, err := v.array()
	if err != nil {
		return 0, v.shapeError("array or object")
	}
	return len(a), nil
}

// Index returns the array element at i.
func (v Value) Index(i int) (Value, error) {
	a, err := v.array()
	if err != nil {
		return Value{}, err
	}
	if i < 0 || i >= len(a) {
		return Value{}, apperrors.NewUnexpectedShape(fmt.Sprintf("%s[%d]", v.path, i), "element", "out of range").
			WithDetail("length", len(a))
	}
	return Value{raw: a[i], path: fmt.Sprintf("%s[%d]", v.path, i), valid: true}, nil
}

// Elements returns all array elements.
func (v Value) Elements() ([]Value, error) {
	a, err := v.array()
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(a))
	for i, raw := range a {
		out[i] = Value{raw: raw, path: fmt.Sprintf("%s[%d]", v.path, i), valid: true}
	}
	return out, nil
}

func (v Value) Str() (string, error) {
	s, ok := v.raw.(string)
	if !ok || !v.valid {
		return "", v.shapeError("string")
	}
	return s, nil
}

func (v Value) Bool() (bool, error) {
	b, ok := v.raw.(bool)
	if !ok || !v.valid {
		return false, v.shapeError("bool")
	}
	return b, nil
}

func (v Value) Float() (float64, error) {
	switch n := v.raw.(type) {
	case stdjson.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, v.shapeError("float")
		}
		return f, nil
	case float64:
		return n, nil
	}
	return 0, v.shapeError("number")
}

// Int returns an integral number. Fractions and values outside the int64
// range are shape errors rather than being truncated or wrapped.
func (v Value) Int() (int64, error) {
	switch n := v.raw.(type) {
	case stdjson.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		r, ok := new(big.Rat).SetString(n.String())
		if !ok || !r.IsInt() || !r.Num().IsInt64() {
			return 0, apperrors.NewUnexpectedShape(v.path, "integer", n.String())
		}
		return r.Num().Int64(), nil
	case float64:
		if n != math.Trunc(n) || n >= twoTo63 || n < -twoTo63 {
			return 0, apperrors.NewUnexpectedShape(v.path, "integer", strconv.FormatFloat(n, 'g', -1, 64))
		}
		return int64(n), nil
	}
	return 0, v.shapeError("integer")
}

const twoTo63 = float64(1 << 63)

// Decode copies v into out, a pointer to a Go value, applying `default`
// tags. A mismatch between v and out is an UnexpectedShape error.
func (v Value) Decode(out any) error {
	return v.decode(out, false)
}

// DecodeStrict is Decode but rejects object keys that out does not declare.
func (v Value) DecodeStrict(out any) error {
	return v.decode(out, true)
}

func (v Value) decode(out any, strict bool) error {
	if !v.valid {
		return v.shapeError("value")
	}
	data, err := json.Marshal(v.raw)
	if err != nil {
		return apperrors.NewInternal("re-encode parsed value").WithInnerError(err)
	}

	dec := NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(out); err != nil {
		return apperrors.NewUnexpectedShape(v.path, fmt.Sprintf("%T", out), v.Kind().String()).
			WithInnerError(err)
	}
	return nil
}

// Text serializes v back to compact JSON text.
func (v Value) Text() (string, error) {
	if !v.valid {
		return "", v.shapeError("value")
	}
	return json.MarshalToString(v.raw)
}
