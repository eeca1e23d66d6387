package jsonmanager

import (
	"errors"
	"fmt"

	validatorV10 "github.com/go-playground/validator/v10"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

var validator = validatorV10.New()

func getValidationMessage(fe validatorV10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}

// validateShape runs `validate` tags on v. Failures are UnexpectedShape
// errors whose "fields" detail maps each field to a message.
func validateShape(path string, v any) error {
	err := validator.Struct(v)
	if err == nil {
		return nil
	}

	var invalid *validatorV10.InvalidValidationError
	if errors.As(err, &invalid) {
		return apperrors.NewInternal("cannot validate value").WithInnerError(err)
	}

	var fieldErrs validatorV10.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewUnexpectedShape(path, "valid value", "invalid").WithInnerError(err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Namespace()] = getValidationMessage(fe)
	}
	first := fieldErrs[0]
	return apperrors.NewUnexpectedShape(path, fmt.Sprintf("%s %s", first.Namespace(), getValidationMessage(first)), "invalid").
		WithDetail("fields", fields).
		WithInnerError(err)
}
