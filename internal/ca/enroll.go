package ca

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/certforge/keygen-ca/internal/audit"
	"github.com/certforge/keygen-ca/internal/profile"
	"github.com/certforge/keygen-ca/pkg/spkac"
)

// EnrollRequest describes one SPKAC enrollment.
type EnrollRequest struct {
	// SPKAC is the base64 value submitted by the browser.
	SPKAC string

	// Challenge is the expected challenge string. Empty skips the
	// challenge comparison.
	Challenge string

	// Subject holds the requested subject attributes.
	Subject spkac.Subject

	// Profile selects the enrollment profile. Required.
	Profile *profile.Profile

	// Validity overrides the profile validity when non-zero.
	Validity time.Duration
}

// Enroll verifies an SPKAC submission and issues a certificate from
// this CA. The issued certificate is persisted in the CA store.
func (c *CA) Enroll(ctx context.Context, req EnrollRequest) (*x509.Certificate, error) {
	if req.Profile == nil {
		return nil, opError("enroll", fmt.Errorf("profile is required"))
	}
	if err := ctx.Err(); err != nil {
		return nil, opError("enroll", err)
	}

	s, err := spkac.New(req.SPKAC, spkac.Config{
		Challenge: req.Challenge,
		Subject:   req.Subject,
	})
	if err != nil {
		if auditErr := audit.LogSPKACRejected(err.Error()); auditErr != nil {
			return nil, opError("enroll", auditErr)
		}
		return nil, opError("enroll", err)
	}
	if err := audit.LogSPKACVerified(s.AlgorithmOID().String()); err != nil {
		return nil, opError("enroll", err)
	}

	if err := req.Profile.Apply(s); err != nil {
		return nil, opError("enroll", err)
	}

	serial, err := c.store.NextSerial()
	if err != nil {
		return nil, opError("enroll", err)
	}

	validity := req.Validity
	if validity == 0 {
		validity = req.Profile.Validity
	}
	now := time.Now().UTC()

	cert, err := s.Issue(c.signer, c.cert, spkac.IssueParams{
		Serial:    serial,
		NotBefore: now,
		NotAfter:  now.Add(validity),
	})
	if err != nil {
		return nil, &Error{Op: "enroll", Serial: serialString(serial), Err: err}
	}

	if err := c.store.SaveCert(serial, spkac.CertificatePEM(cert)); err != nil {
		return nil, &Error{Op: "enroll", Serial: serialString(serial), Err: err}
	}

	if err := audit.LogCertIssued(serialString(serial), cert.Subject.String(),
		req.Profile.Name, c.store.Dir()); err != nil {
		return nil, &Error{Op: "enroll", Serial: serialString(serial), Err: err}
	}

	return cert, nil
}
