package jsonmanager

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/json"
)

type settingsDoc struct {
	Name    string   `json:"name" validate:"required"`
	Retries int      `json:"retries" default:"3" validate:"gte=0,lte=10"`
	Mode    string   `json:"mode" default:"fast" validate:"oneof=fast safe"`
	Tags    []string `json:"tags,omitempty"`
}

func TestStructGenerator_Compact(t *testing.T) {
	doc := &settingsDoc{Name: "alpha", Retries: 1, Mode: "safe"}
	exp := NewStructExporter(doc, "")

	text, err := exp.GenerateJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"alpha","retries":1,"mode":"safe"}`, text)
}

func TestStructGenerator_IndentAndDefaults(t *testing.T) {
	doc := &settingsDoc{Name: "beta"}
	exp := NewStructExporter(doc, "  ")

	text, err := exp.GenerateJSON()
	require.NoError(t, err)
	assert.Contains(t, text, "\n  \"retries\": 3")
	assert.Contains(t, text, "\"mode\": \"fast\"")
	assert.True(t, json.Valid([]byte(text)))
}

func TestStructGenerator_LeavesValueUnchanged(t *testing.T) {
	doc := &settingsDoc{Name: "beta"}

	text, err := NewStructExporter(doc, "").GenerateJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"beta","retries":3,"mode":"fast"}`, text)
	assert.Equal(t, settingsDoc{Name: "beta"}, *doc)
}

func TestStructGenerator_NilValue(t *testing.T) {
	_, err := NewExporter(&StructGenerator[settingsDoc]{}).GenerateJSON()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.FromError(err).Type)
}

func TestStructBuilder_AppliesDefaults(t *testing.T) {
	doc, err := NewStructImporter[settingsDoc](false).BuildObject(`{"name":"gamma"}`)
	require.NoError(t, err)
	assert.Equal(t, settingsDoc{Name: "gamma", Retries: 3, Mode: "fast"}, doc)
}

func TestStructBuilder_ValidationFailure(t *testing.T) {
	imp := NewStructImporter[settingsDoc](false)

	_, err := imp.BuildObject(`{"retries":50}`)
	require.Error(t, err)
	require.True(t, apperrors.IsUnexpectedShape(err))

	fields, ok := apperrors.FromError(err).Detail("fields").(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["settingsDoc.Name"])
	assert.Equal(t, "must be less than or equal to 10", fields["settingsDoc.Retries"])
}

func TestStructBuilder_WrongTypes(t *testing.T) {
	_, err := NewStructImporter[settingsDoc](false).BuildObject(`{"name":["not","a","string"]}`)
	assert.True(t, apperrors.IsUnexpectedShape(err))

	_, err = NewStructImporter[settingsDoc](false).BuildObject(`[1,2]`)
	assert.True(t, apperrors.IsUnexpectedShape(err))
}

func TestStructBuilder_Strict(t *testing.T) {
	text := `{"name":"delta","unknown":true}`

	_, err := NewStructImporter[settingsDoc](false).BuildObject(text)
	require.NoError(t, err)

	_, err = NewStructImporter[settingsDoc](true).BuildObject(text)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnexpectedShape(err))
}

func TestStructBuilder_PointerTarget(t *testing.T) {
	imp := NewStructImporter[*settingsDoc](false)

	doc, err := imp.BuildObject(`{"name":"eps","mode":"safe"}`)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "safe", doc.Mode)

	_, err = imp.BuildObject(`{"mode":"safe"}`)
	assert.True(t, apperrors.IsUnexpectedShape(err))
}

func TestStructBuilder_NonStructTarget(t *testing.T) {
	list, err := NewStructImporter[[]int](false).BuildObject(`[1,2,3]`)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, list)
}

func TestStruct_FileRoundTrip(t *testing.T) {
	store, fsys := newMemStorage(t)
	doc := &settingsDoc{Name: "zeta", Retries: 2, Mode: "safe", Tags: []string{"a", "b"}}

	require.NoError(t, NewStructExporter(doc, "\t", WithStorage(store)).ExportToFile("nested/doc.json"))

	raw, err := afero.ReadFile(fsys, "/docs/nested/doc.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n\t"))

	got, err := NewStructImporter[settingsDoc](true, WithStorage(store)).ImportFromFile("nested/doc.json")
	require.NoError(t, err)
	assert.Equal(t, *doc, got)
}
