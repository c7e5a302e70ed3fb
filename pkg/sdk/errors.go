package sdk

import (
	"errors"
	"fmt"
)

// Error codes returned by the service.
const (
	CodeBadRequest         = "bad_request"
	CodeValidationFailed   = "validation_failed"
	CodeFactNotFound       = "fact_not_found"
	CodeBlobNotFound       = "blob_not_found"
	CodeBlobTooLarge       = "blob_too_large"
	CodeBlobUnavailable    = "blob_unavailable"
	CodeStorageUnavailable = "storage_unavailable"
	CodeIntegrityFailed    = "integrity_check_failed"
	CodeNetworkError       = "network_error"
	CodeInternalError      = "internal_error"
)

// APIError is a structured error returned by the service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Set for blob_too_large errors.
	Size    int `json:"size,omitempty"`
	MaxSize int `json:"max_size,omitempty"`
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("factstore: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("factstore: %s (%s)", e.Message, e.Code)
}

// AsAPIError extracts the APIError from err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func hasCode(err error, codes ...string) bool {
	ae, ok := AsAPIError(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if ae.Code == c {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a fact or blob not-found error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeFactNotFound, CodeBlobNotFound)
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	return hasCode(err, CodeBadRequest, CodeValidationFailed, CodeBlobTooLarge)
}

// IsUnavailable reports whether err is a transient storage outage; the
// request may succeed when retried later.
func IsUnavailable(err error) bool {
	return hasCode(err, CodeBlobUnavailable, CodeStorageUnavailable, CodeNetworkError)
}
