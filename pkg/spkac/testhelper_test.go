package spkac

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"math/big"
	"sync"
	"testing"
	"time"
)

// signedPublicKeyAndChallenge is the full envelope, used by tests to
// synthesize inputs the way a browser would.
type signedPublicKeyAndChallenge struct {
	PKAC      asn1.RawValue
	Algorithm pkix.AlgorithmIdentifier
	Signature asn1.BitString
}

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// testRSAKey returns a shared RSA key. Key generation dominates test
// runtime, so all tests share one.
func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

// marshalSPKI returns the DER SubjectPublicKeyInfo for key.
func marshalSPKI(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	spkiDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshaling SPKI: %v", err)
	}
	return spkiDER
}

// buildSPKAC synthesizes a well-formed base64 SPKAC for the given key
// and challenge, signed with md5WithRSAEncryption like a browser.
func buildSPKAC(t *testing.T, key *rsa.PrivateKey, challenge string) string {
	t.Helper()

	spkiDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshaling SPKI: %v", err)
	}
	return buildSPKACFromSPKI(t, key, spkiDER, challenge, OIDMD5WithRSA)
}

// buildSPKACFromSPKI is buildSPKAC with the SPKI bytes and signature
// algorithm OID under test control.
func buildSPKACFromSPKI(t *testing.T, key *rsa.PrivateKey, spkiDER []byte, challenge string, sigOID asn1.ObjectIdentifier) string {
	t.Helper()

	pkacDER, err := asn1.Marshal(publicKeyAndChallenge{
		SPKI:      asn1.RawValue{FullBytes: spkiDER},
		Challenge: challenge,
	})
	if err != nil {
		t.Fatalf("marshaling PublicKeyAndChallenge: %v", err)
	}

	digest := md5.Sum(pkacDER)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.MD5, digest[:])
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	return encodeEnvelope(t, pkacDER, pkix.AlgorithmIdentifier{
		Algorithm:  sigOID,
		Parameters: asn1.NullRawValue,
	}, sig)
}

// encodeEnvelope assembles and base64-encodes the outer
// SignedPublicKeyAndChallenge sequence.
func encodeEnvelope(t *testing.T, pkacDER []byte, alg pkix.AlgorithmIdentifier, sig []byte) string {
	t.Helper()

	der, err := asn1.Marshal(signedPublicKeyAndChallenge{
		PKAC:      asn1.RawValue{FullBytes: pkacDER},
		Algorithm: alg,
		Signature: asn1.BitString{Bytes: sig, BitLength: len(sig) * 8},
	})
	if err != nil {
		t.Fatalf("marshaling envelope: %v", err)
	}
	return base64.StdEncoding.EncodeToString(der)
}

// newTestCA builds a self-signed ECDSA CA for issuance tests.
func newTestCA(t *testing.T) (crypto.Signer, *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating CA key: %v", err)
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Issuing CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating CA certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing CA certificate: %v", err)
	}
	return key, cert
}
