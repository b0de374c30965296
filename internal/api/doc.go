// Package api translates HTTP requests into service calls. Handlers decode
// and validate the body, take the user from the request context set by the
// auth middleware, and answer with the {success, data} or
// {success, error, trace_id} envelope from package shared.
//
// Errors are mapped to statuses in one place, MapErrorToStatusCode, and
// clients only ever see the text from GetSafeErrorMessage.
package api
