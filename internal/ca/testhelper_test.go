package ca

import (
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/certforge/keygen-ca/pkg/spkac"
)

var (
	enrollKeyOnce sync.Once
	enrollKey     *rsa.PrivateKey
)

// buildSPKAC synthesizes a browser-style SPKAC signed by a shared
// enrollment key.
func buildSPKAC(t *testing.T, challenge string) string {
	t.Helper()

	enrollKeyOnce.Do(func() {
		var err error
		enrollKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})

	spkiDER, err := x509.MarshalPKIXPublicKey(&enrollKey.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	pkacDER, err := asn1.Marshal(struct {
		SPKI      asn1.RawValue
		Challenge string `asn1:"ia5"`
	}{asn1.RawValue{FullBytes: spkiDER}, challenge})
	if err != nil {
		t.Fatal(err)
	}

	digest := md5.Sum(pkacDER)
	sig, err := rsa.SignPKCS1v15(rand.Reader, enrollKey, crypto.MD5, digest[:])
	if err != nil {
		t.Fatal(err)
	}

	der, err := asn1.Marshal(struct {
		PKAC      asn1.RawValue
		Algorithm pkix.AlgorithmIdentifier
		Signature asn1.BitString
	}{
		asn1.RawValue{FullBytes: pkacDER},
		pkix.AlgorithmIdentifier{Algorithm: spkac.OIDMD5WithRSA, Parameters: asn1.NullRawValue},
		asn1.BitString{Bytes: sig, BitLength: len(sig) * 8},
	})
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(der)
}

// newTestCA initializes a throwaway CA in a temp directory.
func newTestCA(t *testing.T) *CA {
	t.Helper()
	authority, err := Initialize(t.TempDir(), InitOptions{
		CommonName:   "Test Issuing CA",
		Organization: "Test Org",
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return authority
}
