package spkac

import (
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// Config is the parameter object for New. It replaces the keyword /
// positional argument convention of the legacy API with explicit
// fields.
type Config struct {
	// Challenge is the token the server handed to the <keygen> form.
	// If non-empty it must equal the challenge embedded in the SPKAC
	// byte for byte; if empty the check is skipped.
	Challenge string

	// Subject holds initial subject attributes for the certificate.
	Subject Subject

	// Extensions are pushed onto the extension stack in order, before
	// the subject attributes are applied.
	Extensions []pkix.Extension
}

// SPKAC is a decoded and verified Signed Public Key and Challenge.
//
// A SPKAC exists only in the fully verified state: New runs decode,
// structural validation, the challenge check and self-signature
// verification as one all-or-nothing step, so any SPKAC a caller holds
// has passed all of them. The subject and extension stack stay mutable
// until a certificate is issued from it.
//
// Independent SPKAC values may be used concurrently; a single value
// must not be mutated from multiple goroutines without the caller's
// own synchronization.
type SPKAC struct {
	signed       []byte
	spki         []byte
	challenge    string
	algorithmOID asn1.ObjectIdentifier
	signature    []byte

	publicKey crypto.PublicKey
	hash      crypto.Hash

	subject    *Name
	extensions []pkix.Extension

	cert *x509.Certificate
}

// New decodes a base64 SPKAC as produced by a browser <keygen> form,
// verifies its structure, the expected challenge and its
// self-signature, and returns the verified object. Any failure aborts
// construction: there is no partially verified SPKAC.
func New(b64 string, cfg Config) (*SPKAC, error) {
	d, err := decode(b64)
	if err != nil {
		return nil, err
	}

	if cfg.Challenge != "" && cfg.Challenge != d.challenge {
		return nil, &ChallengeMismatchError{Received: d.challenge, Expected: cfg.Challenge}
	}

	pub, hash, err := resolvePublicKey(d.algorithmOID, d.spki)
	if err != nil {
		return nil, err
	}

	v, verr := verifySignature(pub, hash, d.signed, d.signature)
	switch v {
	case verdictMatch:
		// verified
	case verdictNoMatch:
		return nil, newDecodeError("signature", ErrInvalidSignature)
	case verdictInternalError:
		return nil, newDecodeError("signature", fmt.Errorf("%w: %v", ErrVerification, verr))
	default:
		// The verifier contract has exactly three outcomes; anything
		// else is a bug, not an input error.
		panic(fmt.Sprintf("spkac: impossible signature verdict %d", v))
	}

	s := &SPKAC{
		signed:       d.signed,
		spki:         d.spki,
		challenge:    d.challenge,
		algorithmOID: d.algorithmOID,
		signature:    d.signature,
		publicKey:    pub,
		hash:         hash,
		subject:      &Name{},
	}

	for _, ext := range cfg.Extensions {
		s.PushExtension(ext)
	}
	cfg.Subject.apply(s.subject)

	return s, nil
}

// Challenge returns the challenge string embedded in the SPKAC.
func (s *SPKAC) Challenge() string { return s.challenge }

// PublicKey returns the public key extracted from the SPKAC.
func (s *SPKAC) PublicKey() crypto.PublicKey { return s.publicKey }

// Hash returns the digest the self-signature was verified with.
func (s *SPKAC) Hash() crypto.Hash { return s.hash }

// AlgorithmOID returns the signature algorithm OID from the envelope.
func (s *SPKAC) AlgorithmOID() asn1.ObjectIdentifier {
	return append(asn1.ObjectIdentifier(nil), s.algorithmOID...)
}

// SignedBytes returns the canonical DER re-encoding of
// PublicKeyAndChallenge, the exact bytes the self-signature was
// verified over. Retained for audit.
func (s *SPKAC) SignedBytes() []byte { return append([]byte(nil), s.signed...) }

// Signature returns the raw self-signature bytes.
func (s *SPKAC) Signature() []byte { return append([]byte(nil), s.signature...) }

// SubjectPublicKeyInfo returns the DER SubjectPublicKeyInfo element.
func (s *SPKAC) SubjectPublicKeyInfo() []byte { return append([]byte(nil), s.spki...) }

// Subject returns the mutable subject attribute container.
func (s *SPKAC) Subject() *Name { return s.subject }

// PushExtension appends an extension to the ordered extension stack.
// Extensions are opaque here: no deduplication, no semantic checks.
// Issuance reproduces the stack in push order.
func (s *SPKAC) PushExtension(ext pkix.Extension) {
	s.extensions = append(s.extensions, ext)
}

// Extensions returns the extension stack in push order.
func (s *SPKAC) Extensions() []pkix.Extension {
	return append([]pkix.Extension(nil), s.extensions...)
}

// Certificate returns the most recently issued certificate, or nil if
// Issue has not been called.
func (s *SPKAC) Certificate() *x509.Certificate { return s.cert }
