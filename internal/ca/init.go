package ca

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/certforge/keygen-ca/internal/audit"
	"github.com/certforge/keygen-ca/internal/x509util"
)

// InitOptions configures CA initialization.
type InitOptions struct {
	// Subject of the self-signed CA certificate.
	CommonName   string
	Organization string
	Country      string

	// Algorithm is "ecdsa-p256" (default) or "rsa-2048".
	Algorithm string

	// Validity of the CA certificate. Defaults to 10 years.
	Validity time.Duration
}

// Initialize creates a new self-signed CA in dir.
func Initialize(dir string, opts InitOptions) (*CA, error) {
	if opts.CommonName == "" {
		return nil, opError("init", fmt.Errorf("common name is required"))
	}
	if opts.Algorithm == "" {
		opts.Algorithm = "ecdsa-p256"
	}
	if opts.Validity == 0 {
		opts.Validity = 10 * 365 * 24 * time.Hour
	}

	store := NewStore(dir)
	if err := store.Init(); err != nil {
		return nil, opError("init", err)
	}

	signer, keyPEM, err := generateKey(opts.Algorithm)
	if err != nil {
		return nil, opError("init", err)
	}

	subject := pkix.Name{CommonName: opts.CommonName}
	if opts.Organization != "" {
		subject.Organization = []string{opts.Organization}
	}
	if opts.Country != "" {
		subject.Country = []string{opts.Country}
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, opError("init", err)
	}

	skid, err := x509util.SubjectKeyID(signer.Public())
	if err != nil {
		return nil, opError("init", err)
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		NotBefore:             now,
		NotAfter:              now.Add(opts.Validity),
		IsCA:                  true,
		BasicConstraintsValid: true,
		MaxPathLenZero:        true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		SubjectKeyId:          skid,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, signer.Public(), signer)
	if err != nil {
		return nil, opError("init", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, opError("init", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := store.SaveCA(certPEM, keyPEM); err != nil {
		return nil, opError("init", err)
	}

	if err := audit.LogCACreated(dir, cert.Subject.String(), opts.Algorithm); err != nil {
		return nil, opError("init", err)
	}

	return &CA{store: store, cert: cert, signer: signer}, nil
}

func generateKey(algorithm string) (crypto.Signer, []byte, error) {
	var signer crypto.Signer
	switch algorithm {
	case "ecdsa-p256":
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		signer = key
	case "rsa-2048":
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, nil, err
		}
		signer = key
	default:
		return nil, nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}

	der, err := x509.MarshalPKCS8PrivateKey(signer)
	if err != nil {
		return nil, nil, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return signer, keyPEM, nil
}
