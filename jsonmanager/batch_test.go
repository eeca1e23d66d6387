package jsonmanager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

func newBatchStorage() *recordingStorage {
	store := newRecordingStorage()
	store.docs["one.json"] = `{"x":1,"y":1}`
	store.docs["bad.json"] = `{"x":`
	store.docs["shape.json"] = `{"x":2}`
	store.docs["three.json"] = `{"x":3,"y":3}`
	return store
}

func TestImportAll_AllSucceed(t *testing.T) {
	store := newBatchStorage()
	imp := NewImporter[Point](pointBuilder{}, WithStorage(store))

	got, err := ImportAll(imp, []string{"one.json", "three.json"}, StopOnError)
	require.NoError(t, err)
	assert.Equal(t, []Imported[Point]{
		{Path: "one.json", Object: Point{1, 1}},
		{Path: "three.json", Object: Point{3, 3}},
	}, got)
	assert.Equal(t, "three.json", imp.Path())
}

func TestImportAll_StopOnError(t *testing.T) {
	store := newBatchStorage()
	imp := NewImporter[Point](pointBuilder{}, WithStorage(store))

	got, err := ImportAll(imp, []string{"one.json", "bad.json", "three.json"}, StopOnError)
	require.Error(t, err)
	assert.True(t, apperrors.IsCannotParse(err))
	require.Len(t, got, 1)
	assert.Equal(t, "one.json", got[0].Path)
	assert.Equal(t, 2, store.reads)
}

func TestImportAll_SkipOnError(t *testing.T) {
	store := newBatchStorage()
	imp := NewImporter[Point](pointBuilder{}, WithStorage(store))

	paths := []string{"one.json", "bad.json", "", "missing.json", "shape.json", "three.json"}
	got, err := ImportAll(imp, paths, SkipOnError)
	require.Error(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one.json", got[0].Path)
	assert.Equal(t, "three.json", got[1].Path)

	var chain *apperrors.ErrorChain
	require.True(t, errors.As(err, &chain))
	require.Equal(t, 4, chain.Len())
	assert.True(t, chain.HasType(apperrors.ErrorTypeCannotParse))
	assert.True(t, chain.HasType(apperrors.ErrorTypeNoFileConfigured))
	assert.True(t, chain.HasType(apperrors.ErrorTypeIO))
	assert.True(t, chain.HasType(apperrors.ErrorTypeUnexpectedShape))
	assert.Equal(t, "bad.json", chain.First().Detail("batch_path"))
	assert.ErrorIs(t, err, apperrors.ErrUnexpectedShape)
}

func TestImportAll_EmptyPathStopsWithoutIO(t *testing.T) {
	store := newBatchStorage()
	imp := NewImporter[Point](pointBuilder{}, WithStorage(store), WithPath("one.json"))

	got, err := ImportAll(imp, []string{""}, StopOnError)
	assert.True(t, apperrors.IsNoFileConfigured(err))
	assert.Empty(t, got)
	assert.Zero(t, store.reads)
}

func TestImportAll_NoPaths(t *testing.T) {
	got, err := ImportAll(NewImporter[Point](pointBuilder{}, WithStorage(newRecordingStorage())), nil, SkipOnError)
	require.NoError(t, err)
	assert.Empty(t, got)
}
