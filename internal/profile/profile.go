// Package profile defines enrollment profiles: the issuance policy a
// CA applies to a verified SPKAC request. A profile carries subject
// defaults, a validity period, and the extension set stamped onto
// issued certificates.
package profile

import (
	"crypto/x509/pkix"
	"fmt"
	"time"

	"github.com/certforge/keygen-ca/internal/x509util"
	"github.com/certforge/keygen-ca/pkg/spkac"
)

// Profile is a compiled enrollment profile.
type Profile struct {
	Name        string
	Description string

	// Validity is the lifetime of issued certificates.
	Validity time.Duration

	// Subject holds default subject attributes, keyed by short-name.
	// A default applies only where the request left the attribute
	// unset.
	Subject map[string]string

	// EmailSAN copies the subject email into a subjectAltName
	// rfc822Name entry.
	EmailSAN bool

	extensions *extensionsConfig
}

// extensionsConfig is the per-profile extension policy.
type extensionsConfig struct {
	BasicConstraints *basicConstraintsConfig
	KeyUsage         *keyUsageConfig
	ExtKeyUsage      *extKeyUsageConfig
}

type basicConstraintsConfig struct {
	Critical bool
	CA       bool
}

type keyUsageConfig struct {
	Critical bool
	Values   []string
}

type extKeyUsageConfig struct {
	Critical bool
	Values   []string
}

// Extensions compiles the profile's extension policy into an ordered
// extension list: basicConstraints, keyUsage, extKeyUsage, then
// subjectAltName when EmailSAN is set and the request carries an
// email.
func (p *Profile) Extensions(email string) ([]pkix.Extension, error) {
	var exts []pkix.Extension

	if p.extensions != nil {
		if bc := p.extensions.BasicConstraints; bc != nil {
			ext, err := x509util.BasicConstraints(bc.Critical, bc.CA)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			exts = append(exts, ext)
		}
		if ku := p.extensions.KeyUsage; ku != nil {
			ext, err := x509util.KeyUsage(ku.Critical, ku.Values...)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			exts = append(exts, ext)
		}
		if eku := p.extensions.ExtKeyUsage; eku != nil {
			ext, err := x509util.ExtKeyUsage(eku.Critical, eku.Values...)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			exts = append(exts, ext)
		}
	}

	if p.EmailSAN && email != "" {
		ext, err := x509util.SubjectAltName([]string{email}, nil)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		exts = append(exts, ext)
	}

	return exts, nil
}

// Apply stamps the profile onto a verified SPKAC: the compiled
// extensions are pushed in order and subject defaults fill attributes
// the request left unset.
func (p *Profile) Apply(s *spkac.SPKAC) error {
	exts, err := p.Extensions(s.Subject().Get("Email"))
	if err != nil {
		return err
	}
	for _, ext := range exts {
		s.PushExtension(ext)
	}

	// Fixed application order keeps the subject attribute order stable
	// across runs regardless of map iteration.
	for _, name := range []string{"C", "ST", "L", "O", "OU", "CN", "SerialNumber", "Email"} {
		value, ok := p.Subject[name]
		if !ok || value == "" || s.Subject().Get(name) != "" {
			continue
		}
		if err := s.Subject().Set(name, value); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}

	return nil
}
