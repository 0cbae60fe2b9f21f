package spkac

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/base64"
	"errors"
	"testing"
)

func TestDecodeValid(t *testing.T) {
	key := testRSAKey(t)
	b64 := buildSPKAC(t, key, "my-challenge")

	d, err := decode(b64)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if d.challenge != "my-challenge" {
		t.Errorf("challenge = %q, want %q", d.challenge, "my-challenge")
	}
	if !d.algorithmOID.Equal(OIDMD5WithRSA) {
		t.Errorf("algorithmOID = %v, want %v", d.algorithmOID, OIDMD5WithRSA)
	}
	if len(d.signature) == 0 {
		t.Error("signature is empty")
	}
	if len(d.spki) == 0 {
		t.Error("spki is empty")
	}
}

func TestDecodeFoldedBase64(t *testing.T) {
	key := testRSAKey(t)
	b64 := buildSPKAC(t, key, "folded")

	// Fold the value the way a form transport would.
	var folded bytes.Buffer
	for i, c := range b64 {
		if i > 0 && i%64 == 0 {
			folded.WriteString("\r\n")
		}
		folded.WriteRune(c)
	}

	d, err := decode(folded.String())
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if d.challenge != "folded" {
		t.Errorf("challenge = %q, want %q", d.challenge, "folded")
	}
}

func TestDecodeIdempotent(t *testing.T) {
	key := testRSAKey(t)
	b64 := buildSPKAC(t, key, "stable")

	d1, err := decode(b64)
	if err != nil {
		t.Fatalf("first decode() error = %v", err)
	}
	d2, err := decode(b64)
	if err != nil {
		t.Fatalf("second decode() error = %v", err)
	}
	if !bytes.Equal(d1.signed, d2.signed) {
		t.Error("signed bytes differ between decodes")
	}
}

func TestDecodeBadBase64(t *testing.T) {
	_, err := decode("!!!not base64!!!")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("decode() error = %v, want *DecodeError", err)
	}
	if decodeErr.Stage != "base64" {
		t.Errorf("Stage = %q, want %q", decodeErr.Stage, "base64")
	}
}

func TestDecodeTrailingData(t *testing.T) {
	key := testRSAKey(t)
	der, err := base64.StdEncoding.DecodeString(buildSPKAC(t, key, "x"))
	if err != nil {
		t.Fatal(err)
	}
	der = append(der, 0x00)

	_, err = decode(base64.StdEncoding.EncodeToString(der))
	if !errors.Is(err, ErrTrailingData) {
		t.Errorf("decode() error = %v, want ErrTrailingData", err)
	}
}

func TestDecodeNotSequence(t *testing.T) {
	der, err := asn1.Marshal(42)
	if err != nil {
		t.Fatal(err)
	}
	_, err = decode(base64.StdEncoding.EncodeToString(der))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("decode() error = %v, want ErrUnknownFormat", err)
	}
}

func TestDecodeMissingSignature(t *testing.T) {
	key := testRSAKey(t)
	spkiDER := marshalSPKI(t, key)
	pkacDER, err := asn1.Marshal(publicKeyAndChallenge{
		SPKI:      asn1.RawValue{FullBytes: spkiDER},
		Challenge: "x",
	})
	if err != nil {
		t.Fatal(err)
	}

	// Outer sequence with only two of the three elements.
	truncated := struct {
		PKAC      asn1.RawValue
		Algorithm pkix.AlgorithmIdentifier
	}{
		PKAC:      asn1.RawValue{FullBytes: pkacDER},
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: OIDMD5WithRSA, Parameters: asn1.NullRawValue},
	}
	der, err := asn1.Marshal(truncated)
	if err != nil {
		t.Fatal(err)
	}

	_, err = decode(base64.StdEncoding.EncodeToString(der))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("decode() error = %v, want ErrUnknownFormat", err)
	}
}

func TestDecodeAlgorithmParamsNotEmpty(t *testing.T) {
	key := testRSAKey(t)
	spkiDER := marshalSPKI(t, key)
	pkacDER, err := asn1.Marshal(publicKeyAndChallenge{
		SPKI:      asn1.RawValue{FullBytes: spkiDER},
		Challenge: "x",
	})
	if err != nil {
		t.Fatal(err)
	}

	// Smuggle an OID into the algorithm parameters.
	paramDER, err := asn1.Marshal(OIDMD5WithRSA)
	if err != nil {
		t.Fatal(err)
	}
	b64 := encodeEnvelope(t, pkacDER, pkix.AlgorithmIdentifier{
		Algorithm:  OIDMD5WithRSA,
		Parameters: asn1.RawValue{FullBytes: paramDER},
	}, make([]byte, 16))

	_, err = decode(b64)
	if !errors.Is(err, ErrInvalidPublicKeyInfo) {
		t.Errorf("decode() error = %v, want ErrInvalidPublicKeyInfo", err)
	}
}

func TestDecodeChallengeNotIA5(t *testing.T) {
	key := testRSAKey(t)
	spkiDER := marshalSPKI(t, key)

	// Hand-assemble a PublicKeyAndChallenge whose IA5String carries a
	// byte above 127.
	challenge := asn1.RawValue{
		Class: asn1.ClassUniversal,
		Tag:   asn1.TagIA5String,
		Bytes: []byte{0xC3, 0xA9}, // UTF-8 e-acute
	}
	challengeDER, err := asn1.Marshal(challenge)
	if err != nil {
		t.Fatal(err)
	}
	pkac := asn1.RawValue{
		Class:      asn1.ClassUniversal,
		Tag:        asn1.TagSequence,
		IsCompound: true,
		Bytes:      append(append([]byte(nil), spkiDER...), challengeDER...),
	}
	pkacDER, err := asn1.Marshal(pkac)
	if err != nil {
		t.Fatal(err)
	}
	b64 := encodeEnvelope(t, pkacDER, pkix.AlgorithmIdentifier{
		Algorithm:  OIDMD5WithRSA,
		Parameters: asn1.NullRawValue,
	}, make([]byte, 16))

	_, err = decode(b64)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("decode() error = %v, want ErrUnknownFormat", err)
	}
}

func TestDecodeUnalignedSignature(t *testing.T) {
	key := testRSAKey(t)
	spkiDER := marshalSPKI(t, key)
	pkacDER, err := asn1.Marshal(publicKeyAndChallenge{
		SPKI:      asn1.RawValue{FullBytes: spkiDER},
		Challenge: "x",
	})
	if err != nil {
		t.Fatal(err)
	}

	der, err := asn1.Marshal(signedPublicKeyAndChallenge{
		PKAC:      asn1.RawValue{FullBytes: pkacDER},
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: OIDMD5WithRSA, Parameters: asn1.NullRawValue},
		Signature: asn1.BitString{Bytes: []byte{0xff, 0xf0}, BitLength: 12},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = decode(base64.StdEncoding.EncodeToString(der))
	if !errors.Is(err, ErrUnalignedSignature) {
		t.Errorf("decode() error = %v, want ErrUnalignedSignature", err)
	}
}

func TestStripSpace(t *testing.T) {
	got := stripSpace(" a\tb\r\nc ")
	if got != "abc" {
		t.Errorf("stripSpace() = %q, want %q", got, "abc")
	}
}
