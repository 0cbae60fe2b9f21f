package ca

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/certforge/keygen-ca/internal/audit"
)

// CA is a loaded certificate authority ready to issue certificates.
type CA struct {
	store  *Store
	cert   *x509.Certificate
	signer crypto.Signer
}

// New loads an existing CA from dir.
func New(dir string) (*CA, error) {
	store := NewStore(dir)
	if !store.Exists() {
		return nil, opError("load", ErrCANotFound)
	}

	certPEM, err := store.LoadCACert()
	if err != nil {
		return nil, opError("load", err)
	}
	cert, err := parseCertPEM(certPEM)
	if err != nil {
		return nil, opError("load", fmt.Errorf("ca certificate: %w", err))
	}

	keyPEM, err := store.LoadCAKey()
	if err != nil {
		return nil, opError("load", err)
	}
	signer, err := LoadSigner(keyPEM)
	if err != nil {
		return nil, opError("load", fmt.Errorf("ca key: %w", err))
	}

	if err := audit.LogCALoaded(dir, cert.Subject.String()); err != nil {
		return nil, opError("load", err)
	}

	return &CA{store: store, cert: cert, signer: signer}, nil
}

// Certificate returns the CA certificate.
func (c *CA) Certificate() *x509.Certificate { return c.cert }

// Store returns the CA's backing store.
func (c *CA) Store() *Store { return c.store }

// LoadSigner parses an unencrypted PEM private key. PKCS#8, SEC1 EC
// and PKCS#1 RSA encodings are accepted.
func LoadSigner(keyPEM []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if block.Type == "ENCRYPTED PRIVATE KEY" || block.Headers["Proc-Type"] == "4,ENCRYPTED" {
		return nil, ErrKeyEncrypted
	}

	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("key type %T cannot sign", key)
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}

func parseCertPEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no certificate PEM block found")
	}
	return x509.ParseCertificate(block.Bytes)
}
