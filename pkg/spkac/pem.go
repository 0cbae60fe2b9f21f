package spkac

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// ToPEM wraps DER bytes in a PEM envelope with the given label:
//
//	-----BEGIN <LABEL>-----
//	<base64>
//	-----END <LABEL>-----
//
// It is the generic bridge between raw ASN.1 values and primitives
// whose public entry point takes PEM.
func ToPEM(label string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: label, Bytes: der})
}

// CertificatePEM encodes a certificate as a PEM block.
func CertificatePEM(cert *x509.Certificate) []byte {
	return ToPEM("CERTIFICATE", cert.Raw)
}

// loadPublicKeyPEM loads a public key from a PEM "PUBLIC KEY" block.
func loadPublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}
	return x509.ParsePKIXPublicKey(block.Bytes)
}
