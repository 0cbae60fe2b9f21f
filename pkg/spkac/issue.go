package spkac

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// defaultValidity is the certificate lifetime when the caller does not
// set NotAfter.
const defaultValidity = 365 * 24 * time.Hour

// IssueParams holds the per-issuance parameters. The caller is
// responsible for serial number uniqueness.
type IssueParams struct {
	// Serial is the certificate serial number. Required.
	Serial *big.Int

	// NotBefore defaults to the current time in UTC.
	NotBefore time.Time

	// NotAfter defaults to NotBefore plus 365 days.
	NotAfter time.Time
}

// Issue builds and signs an end-entity certificate binding the verified
// public key to the accumulated subject and extension stack. The issuer
// name is copied from caCert's subject and the certificate is signed
// with caKey using SHA-256: the issuance digest is the issuer's policy
// and never inherited from the legacy digest of the incoming request.
//
// Two postconditions are checked before the certificate is released:
// it must verify against the issuer's public key, and it must not be a
// CA certificate no matter what extensions were pushed. A violation is
// reported as *InvariantError, not as an input error.
//
// The issued certificate is cached on the SPKAC, replacing any earlier
// one, and returned.
func (s *SPKAC) Issue(caKey crypto.Signer, caCert *x509.Certificate, p IssueParams) (*x509.Certificate, error) {
	if p.Serial == nil {
		return nil, fmt.Errorf("spkac issue: serial number is required")
	}

	notBefore := p.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now().UTC()
	}
	notAfter := p.NotAfter
	if notAfter.IsZero() {
		notAfter = notBefore.Add(defaultValidity)
	}

	template := &x509.Certificate{
		SerialNumber:       p.Serial,
		Subject:            s.subject.PKIXName(),
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		ExtraExtensions:    s.Extensions(),
		SignatureAlgorithm: issuanceAlgorithm(caKey.Public()),
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, caCert, s.publicKey, caKey)
	if err != nil {
		return nil, fmt.Errorf("spkac issue: signing certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("spkac issue: parsing signed certificate: %w", err)
	}

	if err := caCert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		return nil, &InvariantError{Check: "issuer signature", Err: err}
	}
	if cert.IsCA {
		return nil, &InvariantError{Check: "basic constraints", Err: errors.New("issued certificate is a CA certificate")}
	}

	s.cert = cert
	return cert, nil
}

// issuanceAlgorithm picks the SHA-256 family signature algorithm for
// the issuer's key type. Zero lets the certificate library choose.
func issuanceAlgorithm(pub crypto.PublicKey) x509.SignatureAlgorithm {
	switch pub.(type) {
	case *rsa.PublicKey:
		return x509.SHA256WithRSA
	case *ecdsa.PublicKey:
		return x509.ECDSAWithSHA256
	case ed25519.PublicKey:
		return x509.PureEd25519
	default:
		return x509.UnknownSignatureAlgorithm
	}
}
