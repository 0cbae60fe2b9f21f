package profile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/certforge/keygen-ca/profiles"
)

// ErrNotFound indicates no builtin or on-disk profile matches the
// requested name.
var ErrNotFound = errors.New("profile not found")

// profileYAML is the YAML representation of a Profile.
type profileYAML struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Validity    string            `yaml:"validity"` // duration string like "8760h" or "365d"
	Subject     map[string]string `yaml:"subject,omitempty"`
	EmailSAN    bool              `yaml:"emailSAN,omitempty"`
	Extensions  *extensionsYAML   `yaml:"extensions,omitempty"`
}

type extensionsYAML struct {
	BasicConstraints *struct {
		Critical bool `yaml:"critical"`
		CA       bool `yaml:"ca"`
	} `yaml:"basicConstraints,omitempty"`
	KeyUsage *struct {
		Critical bool     `yaml:"critical"`
		Values   []string `yaml:"values"`
	} `yaml:"keyUsage,omitempty"`
	ExtKeyUsage *struct {
		Critical bool     `yaml:"critical"`
		Values   []string `yaml:"values"`
	} `yaml:"extKeyUsage,omitempty"`
}

// canonicalSubjectKeys normalizes YAML subject keys to the short-name
// spellings the spkac package recognizes.
var canonicalSubjectKeys = map[string]string{
	"cn":           "CN",
	"email":        "Email",
	"o":            "O",
	"ou":           "OU",
	"c":            "C",
	"l":            "L",
	"st":           "ST",
	"serialnumber": "SerialNumber",
}

// Load loads a profile by builtin name or file path. A name that
// matches a file on disk wins over a builtin of the same name.
func Load(nameOrPath string) (*Profile, error) {
	if data, err := os.ReadFile(nameOrPath); err == nil {
		return LoadBytes(data)
	}

	data, err := profiles.FS.ReadFile(nameOrPath + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", nameOrPath, ErrNotFound)
	}
	return LoadBytes(data)
}

// LoadBytes parses a profile from YAML bytes.
func LoadBytes(data []byte) (*Profile, error) {
	var py profileYAML
	if err := yaml.Unmarshal(data, &py); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}
	if py.Name == "" {
		return nil, fmt.Errorf("profile has no name")
	}

	validity, err := parseValidity(py.Validity)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", py.Name, err)
	}

	subject := make(map[string]string, len(py.Subject))
	for k, v := range py.Subject {
		canonical, ok := canonicalSubjectKeys[strings.ToLower(k)]
		if !ok {
			return nil, fmt.Errorf("profile %s: unknown subject attribute %q", py.Name, k)
		}
		subject[canonical] = v
	}

	p := &Profile{
		Name:        py.Name,
		Description: py.Description,
		Validity:    validity,
		Subject:     subject,
		EmailSAN:    py.EmailSAN,
	}

	if py.Extensions != nil {
		cfg := &extensionsConfig{}
		if bc := py.Extensions.BasicConstraints; bc != nil {
			cfg.BasicConstraints = &basicConstraintsConfig{Critical: bc.Critical, CA: bc.CA}
		}
		if ku := py.Extensions.KeyUsage; ku != nil {
			cfg.KeyUsage = &keyUsageConfig{Critical: ku.Critical, Values: ku.Values}
		}
		if eku := py.Extensions.ExtKeyUsage; eku != nil {
			cfg.ExtKeyUsage = &extKeyUsageConfig{Critical: eku.Critical, Values: eku.Values}
		}
		p.extensions = cfg
	}

	// A profile that issues CA certificates would trip the issuance
	// invariant on every request; reject it at load time instead.
	if p.extensions != nil && p.extensions.BasicConstraints != nil && p.extensions.BasicConstraints.CA {
		return nil, fmt.Errorf("profile %s: enrollment profiles cannot set basicConstraints CA:TRUE", py.Name)
	}

	return p, nil
}

// List returns the names of the builtin profiles.
func List() ([]string, error) {
	entries, err := profiles.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// parseValidity parses a validity duration. Go duration syntax is
// accepted, plus a "d" suffix for whole days.
func parseValidity(s string) (time.Duration, error) {
	if s == "" {
		return 365 * 24 * time.Hour, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid validity %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid validity %q", s)
	}
	return d, nil
}
