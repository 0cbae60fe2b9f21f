package spkac

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"

	// The registry names MD5 and SHA-1; link them so Hash.New works.
	_ "crypto/md5"
	_ "crypto/sha1"
)

// SignatureAlgorithm describes how to verify a SPKAC self-signature:
// which public key family the SubjectPublicKeyInfo must decode to and
// which digest the signature was computed with. The digest is a
// property of the OID, never a caller choice.
type SignatureAlgorithm struct {
	Name string
	Key  x509.PublicKeyAlgorithm
	Hash crypto.Hash
}

// OIDMD5WithRSA is the only signature algorithm browsers ever emitted
// from a <keygen> form.
var OIDMD5WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}

// signatureAlgorithms maps dotted OID strings to verification
// parameters. Built once at init and read-only afterwards; adding an
// algorithm is adding a row here.
var signatureAlgorithms = map[string]SignatureAlgorithm{
	OIDMD5WithRSA.String(): {
		Name: "md5WithRSAEncryption",
		Key:  x509.RSA,
		Hash: crypto.MD5,
	},
}

// hashAlgorithms maps hash-only OIDs to digests. No current SPKAC
// carries one of these on the outer structure; the table is reserved
// for structures that name the digest separately.
var hashAlgorithms = map[string]crypto.Hash{
	asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}.String(): crypto.SHA1,
}

// signatureAlgorithmByOID looks up a signature algorithm by OID.
func signatureAlgorithmByOID(oid asn1.ObjectIdentifier) (SignatureAlgorithm, bool) {
	alg, ok := signatureAlgorithms[oid.String()]
	return alg, ok
}

// HashByOID looks up a digest algorithm by its hash-only OID.
func HashByOID(oid asn1.ObjectIdentifier) (crypto.Hash, bool) {
	h, ok := hashAlgorithms[oid.String()]
	return h, ok
}
