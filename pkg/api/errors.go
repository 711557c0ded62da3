package api

import (
	"errors"
	"fmt"
)

// Expired-link failures get their own code so verification UIs can show
// a dedicated expired state instead of a generic failure.
const CodeExpiredLink = "expired_link"

// Error is a structured failure returned by the Keyline API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("keyline api: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("keyline api: %s (status %d)", e.Message, e.Status)
}

// IsClientError reports whether err is an API failure in the 4xx range.
// Client errors are terminal for retry purposes: another attempt cannot
// fix a bad template name or a revoked key.
func IsClientError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// IsExpiredLinkError reports whether err is the expired-link class of
// verification failure.
func IsExpiredLinkError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodeExpiredLink
}

// wireError is the JSON error envelope the API responds with.
type wireError struct {
	Errors []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}
