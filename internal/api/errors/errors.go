// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"errors"
	"net/http"

	"github.com/certforge/keygen-ca/internal/api/dto"
	"github.com/certforge/keygen-ca/internal/ca"
	"github.com/certforge/keygen-ca/internal/challenge"
	"github.com/certforge/keygen-ca/internal/profile"
	"github.com/certforge/keygen-ca/pkg/spkac"
)

// Error codes for API responses.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidSPKAC       = "INVALID_SPKAC"
	CodeSignatureInvalid   = "SIGNATURE_INVALID"
	CodeChallengeMismatch  = "CHALLENGE_MISMATCH"
	CodeChallengeRejected  = "CHALLENGE_REJECTED"
	CodeProfileNotFound    = "PROFILE_NOT_FOUND"
	CodeCertNotFound       = "CERT_NOT_FOUND"
	CodeCANotFound         = "CA_NOT_FOUND"
	CodeIssuanceFailed     = "ISSUANCE_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// MapError maps an internal error to an HTTP status code and APIError.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	var mismatch *spkac.ChallengeMismatchError
	if errors.As(err, &mismatch) {
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeChallengeMismatch,
			Message: "spkac challenge does not match the issued challenge",
		}
	}

	switch {
	case errors.Is(err, spkac.ErrInvalidSignature):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeSignatureInvalid,
			Message: "spkac self-signature verification failed",
		}
	case errors.Is(err, challenge.ErrUnknown), errors.Is(err, challenge.ErrExpired):
		return http.StatusUnprocessableEntity, &dto.APIError{
			Code:    CodeChallengeRejected,
			Message: err.Error(),
		}
	case errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound, &dto.APIError{
			Code:    CodeProfileNotFound,
			Message: err.Error(),
		}
	case errors.Is(err, ca.ErrCertNotFound):
		return http.StatusNotFound, &dto.APIError{
			Code:    CodeCertNotFound,
			Message: err.Error(),
		}
	case errors.Is(err, ca.ErrCANotFound):
		return http.StatusServiceUnavailable, &dto.APIError{
			Code:    CodeCANotFound,
			Message: err.Error(),
		}
	}

	// Malformed SPKAC input is a client error.
	var decodeErr *spkac.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadRequest, &dto.APIError{
			Code:    CodeInvalidSPKAC,
			Message: decodeErr.Error(),
			Details: map[string]string{"stage": decodeErr.Stage},
		}
	}

	// Issuance postcondition failures are server-side faults.
	var invariantErr *spkac.InvariantError
	if errors.As(err, &invariantErr) {
		return http.StatusInternalServerError, &dto.APIError{
			Code:    CodeIssuanceFailed,
			Message: "issued certificate failed verification",
			Details: map[string]string{"check": invariantErr.Check},
		}
	}

	var caErr *ca.Error
	if errors.As(err, &caErr) {
		return http.StatusInternalServerError, &dto.APIError{
			Code:    CodeInternal,
			Message: "An internal error occurred",
			Details: map[string]string{
				"operation": caErr.Op,
			},
		}
	}

	return http.StatusInternalServerError, &dto.APIError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
	}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}

// NewNotFound creates a not found error.
func NewNotFound(resource, id string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeNotFound,
		Message: resource + " not found",
		Details: map[string]string{"id": id},
	}
}
