package domain

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// asValidationError converts ozzo-validation output into a *ValidationError
// naming the first failing field in alphabetical order.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			if fieldErr != nil {
				fields = append(fields, field)
			}
		}
		if len(fields) == 0 {
			return nil
		}
		sort.Strings(fields)
		return NewValidationError(fields[0], fieldErrs[fields[0]].Error(), nil)
	}

	return NewValidationError("", err.Error(), nil)
}
