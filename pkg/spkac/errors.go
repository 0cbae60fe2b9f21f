// Package spkac parses and verifies Netscape Signed Public Key and
// Challenge (SPKAC) structures, the certificate request format produced
// by browsers for the HTML <keygen> element, and issues X.509
// certificates for the verified public key.
package spkac

import (
	"errors"
	"fmt"
)

// Sentinel errors for SPKAC decoding and verification.
// Use errors.Is() to check for these through the error chain.
var (
	// ErrUnknownFormat indicates the DER structure does not have the
	// SignedPublicKeyAndChallenge shape.
	ErrUnknownFormat = errors.New("unknown SPKAC data format")

	// ErrTrailingData indicates bytes remain after the SPKAC value.
	ErrTrailingData = errors.New("data after SPKAC value")

	// ErrInvalidPublicKeyInfo indicates the signature algorithm
	// identifier carries non-empty parameters.
	ErrInvalidPublicKeyInfo = errors.New("invalid public key info")

	// ErrUnknownAlgorithm indicates the signature algorithm OID is not
	// in the registry.
	ErrUnknownAlgorithm = errors.New("unknown signature algorithm")

	// ErrUnalignedSignature indicates the signature BIT STRING is not a
	// whole number of bytes.
	ErrUnalignedSignature = errors.New("signature bit string is not byte-aligned")

	// ErrInvalidSignature indicates the self-signature is well-formed
	// but does not match the signed bytes.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrVerification indicates the signature could not be checked at
	// all (malformed signature or primitive failure).
	ErrVerification = errors.New("error during signature verification")
)

// DecodeError is returned for any malformed or unverifiable SPKAC
// input. It is a user-input-class error: it reports on the request, not
// on the state of this process.
type DecodeError struct {
	Stage string // "base64", "der", "structure", "key", "signature"
	Err   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("spkac %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("spkac: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DecodeError) Unwrap() error { return e.Err }

func newDecodeError(stage string, err error) *DecodeError {
	return &DecodeError{Stage: stage, Err: err}
}

// ChallengeMismatchError is returned when the challenge embedded in the
// SPKAC differs from the one the caller expected. It is kept distinct
// from DecodeError so callers can tell "this request was not meant for
// this session" apart from "this request is corrupt". Both values are
// carried verbatim for diagnostics.
type ChallengeMismatchError struct {
	Received string // challenge decoded from the SPKAC
	Expected string // challenge supplied by the caller
}

// Error implements the error interface.
func (e *ChallengeMismatchError) Error() string {
	return fmt.Sprintf("challenge mismatch: got %q, want %q", e.Received, e.Expected)
}

// InvariantError reports a broken cryptographic or library invariant
// during certificate issuance. Unlike DecodeError it is not an input
// error: it means the issuer produced a certificate that fails its own
// postconditions and must never be handed out.
type InvariantError struct {
	Check string // postcondition that failed
	Err   error
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spkac issue: %s invariant violated: %v", e.Check, e.Err)
	}
	return fmt.Sprintf("spkac issue: %s invariant violated", e.Check)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *InvariantError) Unwrap() error { return e.Err }
