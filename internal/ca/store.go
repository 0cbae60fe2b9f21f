package ca

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store manages the on-disk layout of a CA directory:
//
//	<dir>/ca.crt          CA certificate (PEM)
//	<dir>/private/ca.key  CA private key (PEM, mode 0600)
//	<dir>/serial          next serial number (hex)
//	<dir>/certs/          issued certificates, one per serial
type Store struct {
	dir string

	mu sync.Mutex // guards the serial counter
}

// NewStore returns a store rooted at dir. The directory is not
// created until Init is called.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the CA directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) certPath() string   { return filepath.Join(s.dir, "ca.crt") }
func (s *Store) keyPath() string    { return filepath.Join(s.dir, "private", "ca.key") }
func (s *Store) serialPath() string { return filepath.Join(s.dir, "serial") }
func (s *Store) certsDir() string   { return filepath.Join(s.dir, "certs") }

// Exists reports whether the directory already holds a CA
// certificate and key.
func (s *Store) Exists() bool {
	if _, err := os.Stat(s.certPath()); err != nil {
		return false
	}
	if _, err := os.Stat(s.keyPath()); err != nil {
		return false
	}
	return true
}

// Init creates the CA directory structure.
func (s *Store) Init() error {
	if s.Exists() {
		return ErrCAExists
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.dir, "private"), 0700); err != nil {
		return err
	}
	if err := os.MkdirAll(s.certsDir(), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.serialPath(), []byte("01\n"), 0644)
}

// SaveCA writes the CA certificate and private key.
func (s *Store) SaveCA(certPEM, keyPEM []byte) error {
	if err := os.WriteFile(s.certPath(), certPEM, 0644); err != nil {
		return err
	}
	return os.WriteFile(s.keyPath(), keyPEM, 0600)
}

// LoadCACert reads the CA certificate PEM.
func (s *Store) LoadCACert() ([]byte, error) {
	data, err := os.ReadFile(s.certPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCANotFound
		}
		return nil, err
	}
	return data, nil
}

// LoadCAKey reads the CA private key PEM.
func (s *Store) LoadCAKey() ([]byte, error) {
	data, err := os.ReadFile(s.keyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCANotFound
		}
		return nil, err
	}
	return data, nil
}

// NextSerial returns the current serial number and advances the
// counter on disk.
func (s *Store) NextSerial() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.serialPath())
	if err != nil {
		return nil, fmt.Errorf("reading serial: %w", err)
	}

	serial, ok := new(big.Int).SetString(strings.TrimSpace(string(data)), 16)
	if !ok {
		return nil, fmt.Errorf("malformed serial file %q", s.serialPath())
	}

	next := new(big.Int).Add(serial, big.NewInt(1))
	if err := os.WriteFile(s.serialPath(), []byte(serialString(next)+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("advancing serial: %w", err)
	}
	return serial, nil
}

// SaveCert stores an issued certificate under its serial number.
func (s *Store) SaveCert(serial *big.Int, certPEM []byte) error {
	path := filepath.Join(s.certsDir(), serialString(serial)+".crt")
	return os.WriteFile(path, certPEM, 0644)
}

// LoadCert retrieves an issued certificate by serial number.
func (s *Store) LoadCert(serial *big.Int) ([]byte, error) {
	path := filepath.Join(s.certsDir(), serialString(serial)+".crt")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCertNotFound
		}
		return nil, err
	}
	return data, nil
}

// serialString formats a serial as lowercase hex with an even number
// of digits, matching OpenSSL's serial file convention.
func serialString(serial *big.Int) string {
	s := serial.Text(16)
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return s
}
