package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/service/auth"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/go-playground/validator/v10"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking their types to clients.
func MapErrorToStatusCode(err error) int {
	var fieldErrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusInternalServerError

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrEmptyCollection):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrCycleViolation),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &fieldErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Validation
// errors name the offending field; anything unexpected gets a generic text.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		validationErr *domain.ValidationError
		fieldErrs     validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validationErr):
		if validationErr.Field == "" {
			return validationErr.Message
		}
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.As(err, &fieldErrs):
		return SanitizeValidationError(fieldErrs)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, domain.ErrForbidden):
		return "You do not have access to this resource"

	case errors.Is(err, store.ErrNodeNotFound):
		return "Node not found"
	case errors.Is(err, store.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Study session not found"
	case errors.Is(err, domain.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, domain.ErrEmptyCollection):
		return "No eligible question"
	case errors.Is(err, domain.ErrCycleViolation):
		return "A node cannot be moved into its own subtree"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError describes the first failing field of a request
// struct without echoing the submitted value.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gte":
		return "too small"
	case "uuid":
		return "invalid id"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted error. A non-empty fallback replaces the generic message of
// internal errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
