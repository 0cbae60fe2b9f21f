package spkac

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
)

// resolvePublicKey reconstructs a usable public key from the
// SubjectPublicKeyInfo bytes, dispatching on the signature-algorithm
// OID through the registry. It returns the key together with the
// digest the registry associates with the OID.
//
// The SPKI bytes are bridged through a PEM "PUBLIC KEY" envelope
// because that is the public entry point of the key-loading primitive.
func resolvePublicKey(oid asn1.ObjectIdentifier, spkiDER []byte) (crypto.PublicKey, crypto.Hash, error) {
	alg, ok := signatureAlgorithmByOID(oid)
	if !ok {
		return nil, 0, newDecodeError("key", ErrUnknownAlgorithm)
	}

	pub, err := loadPublicKeyPEM(ToPEM("PUBLIC KEY", spkiDER))
	if err != nil {
		return nil, 0, newDecodeError("key", fmt.Errorf("loading public key: %w", err))
	}

	switch alg.Key {
	case x509.RSA:
		if _, ok := pub.(*rsa.PublicKey); !ok {
			return nil, 0, newDecodeError("key", fmt.Errorf("public key is %T, %s requires RSA", pub, alg.Name))
		}
	default:
		return nil, 0, newDecodeError("key", fmt.Errorf("unsupported key family %v for %s", alg.Key, alg.Name))
	}

	return pub, alg.Hash, nil
}
