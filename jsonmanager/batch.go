package jsonmanager

import (
	apperrors "github.com/leeforge/jsonmanager/errors"
)

// BatchPolicy decides what ImportAll does when one document fails.
type BatchPolicy int

const (
	// StopOnError returns at the first failure.
	StopOnError BatchPolicy = iota
	// SkipOnError records the failure and continues with the next path.
	SkipOnError
)

// Imported pairs a path with the object built from it.
type Imported[T any] struct {
	Path   string
	Object T
}

// ImportAll imports every path in order with imp. Nothing is retried.
//
// With StopOnError the result holds the objects imported before the
// failure and the error is the failure itself. With SkipOnError the error,
// if any, is an *errors.ErrorChain of every failure, and the result holds
// every object that did import.
//
// The importer's remembered path ends up as the last path attempted.
func ImportAll[T any](imp *Importer[T], paths []string, policy BatchPolicy) ([]Imported[T], error) {
	out := make([]Imported[T], 0, len(paths))
	chain := apperrors.NewErrorChain()

	for _, path := range paths {
		if path == "" {
			err := apperrors.NewNoFileConfigured("import")
			if policy == StopOnError {
				return out, err
			}
			chain.Add(err)
			continue
		}

		obj, err := imp.ImportFromFile(path)
		if err != nil {
			if policy == StopOnError {
				return out, err
			}
			chain.Add(apperrors.FromError(err).WithDetail("batch_path", path))
			continue
		}
		out = append(out, Imported[T]{Path: path, Object: obj})
	}

	return out, chain.ErrOrNil()
}
