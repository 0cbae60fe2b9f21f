package spkac

import (
	"encoding/asn1"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// The wire structure, per the HTML <keygen> specification:
//
//	PublicKeyAndChallenge ::= SEQUENCE {
//	    spki       SubjectPublicKeyInfo,
//	    challenge  IA5String
//	}
//	SignedPublicKeyAndChallenge ::= SEQUENCE {
//	    publicKeyAndChallenge  PublicKeyAndChallenge,
//	    signatureAlgorithm     AlgorithmIdentifier,
//	    signature              BIT STRING
//	}

// publicKeyAndChallenge mirrors the signed portion for re-encoding.
type publicKeyAndChallenge struct {
	SPKI      asn1.RawValue
	Challenge string `asn1:"ia5"`
}

// decoded holds the structural pieces extracted from a SPKAC envelope.
type decoded struct {
	// signed is the decoder's own DER re-encoding of
	// PublicKeyAndChallenge. Signature verification runs over these
	// bytes, never over a slice of the caller's input.
	signed       []byte
	spki         []byte
	challenge    string
	algorithmOID asn1.ObjectIdentifier
	signature    []byte
}

// decode parses a base64 SPKAC envelope into its structural pieces.
// Every failure is a DecodeError.
func decode(b64 string) (*decoded, error) {
	der, err := base64.StdEncoding.DecodeString(stripSpace(b64))
	if err != nil {
		return nil, newDecodeError("base64", err)
	}

	var outer asn1.RawValue
	rest, err := asn1.Unmarshal(der, &outer)
	if err != nil {
		return nil, newDecodeError("der", err)
	}
	if len(rest) > 0 {
		return nil, newDecodeError("der", ErrTrailingData)
	}
	if outer.Class != asn1.ClassUniversal || outer.Tag != asn1.TagSequence || !outer.IsCompound {
		return nil, newDecodeError("structure", ErrUnknownFormat)
	}

	// Outer sequence: exactly publicKeyAndChallenge, algorithm, signature.
	body := cryptobyte.String(outer.Bytes)
	var pkac, algID cryptobyte.String
	var sig asn1.BitString
	if !body.ReadASN1(&pkac, cbasn1.SEQUENCE) ||
		!body.ReadASN1(&algID, cbasn1.SEQUENCE) ||
		!body.ReadASN1BitString(&sig) ||
		!body.Empty() {
		return nil, newDecodeError("structure", ErrUnknownFormat)
	}

	// PublicKeyAndChallenge: exactly spki, challenge. The SPKI element
	// is kept with its tag and length so it can be re-embedded.
	var spki cryptobyte.String
	var challenge cryptobyte.String
	if !pkac.ReadASN1Element(&spki, cbasn1.SEQUENCE) ||
		!pkac.ReadASN1(&challenge, cbasn1.IA5String) ||
		!pkac.Empty() {
		return nil, newDecodeError("structure", ErrUnknownFormat)
	}
	if !isIA5(challenge) {
		return nil, newDecodeError("structure", ErrUnknownFormat)
	}

	// AlgorithmIdentifier: an OID plus a parameters element that must
	// be present but empty (NULL) for a legacy SPKAC. Anything carried
	// in the parameters marks a malformed or non-legacy structure.
	var oid asn1.ObjectIdentifier
	var params cryptobyte.String
	var paramsTag cbasn1.Tag
	if !algID.ReadASN1ObjectIdentifier(&oid) ||
		!algID.ReadAnyASN1(&params, &paramsTag) ||
		!algID.Empty() {
		return nil, newDecodeError("structure", ErrUnknownFormat)
	}
	if len(params) != 0 {
		return nil, newDecodeError("structure", ErrInvalidPublicKeyInfo)
	}

	// The original format leaves the unused-bits handling of the
	// signature unspecified; fail closed on non-byte-aligned content.
	if sig.BitLength%8 != 0 {
		return nil, newDecodeError("structure", ErrUnalignedSignature)
	}

	signed, err := asn1.Marshal(publicKeyAndChallenge{
		SPKI:      asn1.RawValue{FullBytes: spki},
		Challenge: string(challenge),
	})
	if err != nil {
		return nil, newDecodeError("structure", fmt.Errorf("re-encoding signed bytes: %w", err))
	}

	return &decoded{
		signed:       signed,
		spki:         append([]byte(nil), spki...),
		challenge:    string(challenge),
		algorithmOID: oid,
		signature:    append([]byte(nil), sig.Bytes...),
	}, nil
}

// stripSpace removes all whitespace from a base64 payload. Browsers
// and form transports fold the value at arbitrary positions.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}

// isIA5 reports whether b contains only 7-bit characters.
func isIA5(b []byte) bool {
	for _, c := range b {
		if c > 127 {
			return false
		}
	}
	return true
}
