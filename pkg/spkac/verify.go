package spkac

import (
	"crypto"
	"crypto/rsa"
	"errors"
	"fmt"
)

// verdict is the explicit three-way outcome of a signature check,
// replacing the raw -1/0/1 convention of legacy verify primitives.
type verdict int

const (
	// verdictInternalError means the check could not run to completion:
	// malformed signature material or a primitive failure. Distinct
	// from a clean non-match.
	verdictInternalError verdict = iota

	// verdictNoMatch means the signature is well-formed but does not
	// match the signed bytes.
	verdictNoMatch

	// verdictMatch means the signature verifies.
	verdictMatch
)

// verifySignature checks signature over signed with the given key and
// digest. The error return carries detail only for
// verdictInternalError.
func verifySignature(pub crypto.PublicKey, hash crypto.Hash, signed, signature []byte) (verdict, error) {
	if !hash.Available() {
		return verdictInternalError, fmt.Errorf("digest %v not linked into binary", hash)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return verdictInternalError, fmt.Errorf("unsupported public key type %T", pub)
	}

	h := hash.New()
	h.Write(signed)
	digest := h.Sum(nil)

	switch err := rsa.VerifyPKCS1v15(rsaPub, hash, digest, signature); {
	case err == nil:
		return verdictMatch, nil
	case errors.Is(err, rsa.ErrVerification):
		return verdictNoMatch, nil
	default:
		return verdictInternalError, err
	}
}
