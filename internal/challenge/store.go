// Package challenge manages single-use enrollment challenges handed
// to browsers before they submit an SPKAC.
package challenge

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"
)

// Errors returned by Redeem.
var (
	ErrUnknown = errors.New("challenge: unknown or already redeemed")
	ErrExpired = errors.New("challenge: expired")
)

const tokenBytes = 30

// Store issues random challenge tokens and redeems each at most
// once. Tokens expire after a configurable TTL.
type Store struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]time.Time // token -> expiry
	now    func() time.Time
}

// NewStore creates a store whose tokens expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:    ttl,
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

// New issues a fresh challenge token.
func (s *Store) New() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	s.tokens[token] = s.now().Add(s.ttl)
	return token, nil
}

// Redeem consumes a token. A token can be redeemed exactly once and
// only before its expiry.
func (s *Store) Redeem(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[token]
	if !ok {
		return ErrUnknown
	}
	delete(s.tokens, token)
	if s.now().After(expiry) {
		return ErrExpired
	}
	return nil
}

// Len reports the number of outstanding tokens.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	return len(s.tokens)
}

func (s *Store) expireLocked() {
	now := s.now()
	for token, expiry := range s.tokens {
		if now.After(expiry) {
			delete(s.tokens, token)
		}
	}
}
