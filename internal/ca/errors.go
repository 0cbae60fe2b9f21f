package ca

import (
	"errors"
	"fmt"
)

// Sentinel errors for CA operations.
var (
	// ErrCANotFound indicates the CA directory does not exist or is
	// missing its certificate or key.
	ErrCANotFound = errors.New("ca not found")

	// ErrCAExists indicates an attempt to initialize a CA in a
	// directory that already holds one.
	ErrCAExists = errors.New("ca already exists")

	// ErrCertNotFound indicates no issued certificate matches the
	// requested serial.
	ErrCertNotFound = errors.New("certificate not found")

	// ErrKeyEncrypted indicates the CA private key is encrypted and
	// cannot be loaded without a passphrase.
	ErrKeyEncrypted = errors.New("ca key is encrypted")
)

// Error wraps a CA operation failure with its context.
type Error struct {
	Op     string // operation, e.g. "init", "enroll", "load"
	Serial string // certificate serial, if applicable
	Err    error
}

func (e *Error) Error() string {
	if e.Serial != "" {
		return fmt.Sprintf("ca: %s %s: %v", e.Op, e.Serial, e.Err)
	}
	return fmt.Sprintf("ca: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
