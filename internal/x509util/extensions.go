package x509util

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// Extension constructors for the handful of extensions a keygen
// enrollment CA stamps onto client certificates. Each returns a
// pkix.Extension ready to be pushed onto a SPKAC extension stack.

// basicConstraints is the RFC 5280 BasicConstraints value.
//
//	BasicConstraints ::= SEQUENCE {
//	    cA                 BOOLEAN DEFAULT FALSE,
//	    pathLenConstraint  INTEGER (0..MAX) OPTIONAL }
type basicConstraints struct {
	IsCA       bool `asn1:"optional"`
	MaxPathLen int  `asn1:"optional,default:-1"`
}

// BasicConstraints builds a basicConstraints extension. Enrollment
// profiles use it with isCA=false to pin issued certificates to
// end-entity use.
func BasicConstraints(critical, isCA bool) (pkix.Extension, error) {
	value, err := asn1.Marshal(basicConstraints{IsCA: isCA, MaxPathLen: -1})
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("marshaling basic constraints: %w", err)
	}
	return pkix.Extension{Id: OIDExtBasicConstraints, Critical: critical, Value: value}, nil
}

// keyUsageNames maps RFC 5280 key usage names to their flags.
var keyUsageNames = map[string]x509.KeyUsage{
	"digitalSignature":  x509.KeyUsageDigitalSignature,
	"contentCommitment": x509.KeyUsageContentCommitment,
	"nonRepudiation":    x509.KeyUsageContentCommitment,
	"keyEncipherment":   x509.KeyUsageKeyEncipherment,
	"dataEncipherment":  x509.KeyUsageDataEncipherment,
	"keyAgreement":      x509.KeyUsageKeyAgreement,
	"keyCertSign":       x509.KeyUsageCertSign,
	"cRLSign":           x509.KeyUsageCRLSign,
	"encipherOnly":      x509.KeyUsageEncipherOnly,
	"decipherOnly":      x509.KeyUsageDecipherOnly,
}

// KeyUsage builds a keyUsage extension from RFC 5280 usage names
// (digitalSignature, keyEncipherment, keyAgreement, ...).
func KeyUsage(critical bool, usages ...string) (pkix.Extension, error) {
	var ku x509.KeyUsage
	for _, u := range usages {
		flag, ok := keyUsageNames[u]
		if !ok {
			return pkix.Extension{}, fmt.Errorf("unknown key usage %q", u)
		}
		ku |= flag
	}

	value, err := asn1.Marshal(keyUsageBitString(ku))
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("marshaling key usage: %w", err)
	}
	return pkix.Extension{Id: OIDExtKeyUsage, Critical: critical, Value: value}, nil
}

// keyUsageBitString encodes a KeyUsage as the RFC 5280 BIT STRING,
// where bit 0 is digitalSignature and trailing zero bits are trimmed.
func keyUsageBitString(ku x509.KeyUsage) asn1.BitString {
	var a [2]byte
	a[0] = reverseBits(byte(ku))
	a[1] = reverseBits(byte(ku >> 8))

	l := 1
	if a[1] != 0 {
		l = 2
	}
	bits := a[:l]
	return asn1.BitString{Bytes: bits, BitLength: significantBits(bits)}
}

func reverseBits(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// significantBits returns the bit length up to the last set bit.
func significantBits(bits []byte) int {
	n := len(bits) * 8
	for n > 0 {
		if bits[(n-1)/8]&(1<<uint(7-(n-1)%8)) != 0 {
			break
		}
		n--
	}
	return n
}

// extKeyUsageNames maps extended key usage names to their OIDs.
var extKeyUsageNames = map[string]asn1.ObjectIdentifier{
	"serverAuth":      OIDExtKeyUsageServerAuth,
	"clientAuth":      OIDExtKeyUsageClientAuth,
	"codeSigning":     OIDExtKeyUsageCodeSigning,
	"emailProtection": OIDExtKeyUsageEmailProtection,
	"timeStamping":    OIDExtKeyUsageTimeStamping,
	"ocspSigning":     OIDExtKeyUsageOCSPSigning,
}

// ExtKeyUsage builds an extendedKeyUsage extension from usage names
// (clientAuth, emailProtection, ...).
func ExtKeyUsage(critical bool, usages ...string) (pkix.Extension, error) {
	oids := make([]asn1.ObjectIdentifier, 0, len(usages))
	for _, u := range usages {
		oid, ok := extKeyUsageNames[u]
		if !ok {
			return pkix.Extension{}, fmt.Errorf("unknown extended key usage %q", u)
		}
		oids = append(oids, oid)
	}

	value, err := asn1.Marshal(oids)
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("marshaling extended key usage: %w", err)
	}
	return pkix.Extension{Id: OIDExtExtKeyUsage, Critical: critical, Value: value}, nil
}

// GeneralName context tags used in SubjectAltName (RFC 5280 §4.2.1.6).
const (
	sanTagEmail = 1
	sanTagDNS   = 2
)

// SubjectAltName builds a subjectAltName extension carrying rfc822Name
// and dNSName entries. Email addresses come first, matching how client
// certificates for keygen enrollment are usually assembled.
func SubjectAltName(emails, dnsNames []string) (pkix.Extension, error) {
	var names []asn1.RawValue
	for _, e := range emails {
		names = append(names, asn1.RawValue{
			Class: asn1.ClassContextSpecific,
			Tag:   sanTagEmail,
			Bytes: []byte(e),
		})
	}
	for _, d := range dnsNames {
		names = append(names, asn1.RawValue{
			Class: asn1.ClassContextSpecific,
			Tag:   sanTagDNS,
			Bytes: []byte(d),
		})
	}

	value, err := asn1.Marshal(names)
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("marshaling subject alt name: %w", err)
	}
	return pkix.Extension{Id: OIDExtSubjectAltName, Critical: false, Value: value}, nil
}

// SubjectKeyID computes the subject key identifier for a public key:
// the first 160 bits of the SHA-256 hash of the PKIX encoding.
func SubjectKeyID(pub crypto.PublicKey) ([]byte, error) {
	pubBytes, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	hash := sha256.Sum256(pubBytes)
	return hash[:20], nil
}
