// Package otp keeps one-time passcodes in process-local memory. Entries are
// keyed by plaintext user id, carry an absolute expiry, and are removed only
// when the caller's whole operation succeeds — a mismatch never burns the
// legitimate holder's code. The store is deliberately not shared across
// processes.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const codeSpace = 1000000 // 6-digit fixed-width numeric space

// Status is the outcome of checking a presented code.
type Status int

const (
	// StatusMatched: a live entry exists and the code is exactly right.
	StatusMatched Status = iota
	// StatusMismatched: a live entry exists but the code differs.
	StatusMismatched
	// StatusMissing: no live entry — never minted, expired, or consumed.
	StatusMissing
)

type entry struct {
	code      string
	expiresAt time.Time
}

// Store is a mutex-guarded OTP map with per-entry TTL and a background sweep
// for stale entries. The clock is a field so tests can control expiry.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Store whose codes expire after ttl.
func New(ttl time.Duration) *Store {
	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	go s.sweep()
	return s
}

// Mint draws a uniform 6-digit code and stores it for userID, replacing any
// live code for the same user.
func (s *Store) Mint(userID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("mint otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry{code: code, expiresAt: s.now().Add(s.ttl)}
	return code, nil
}

// Check compares code against the live entry for userID without consuming
// anything. Expired entries behave as absent.
func (s *Store) Check(userID, code string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return StatusMissing
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, userID)
		return StatusMissing
	}
	if e.code != code {
		return StatusMismatched
	}
	return StatusMatched
}

// Consume drops the entry for userID. Called once the gated operation has
// fully succeeded.
func (s *Store) Consume(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// sweep drops expired entries every minute.
func (s *Store) sweep() {
	for {
		time.Sleep(time.Minute)
		s.mu.Lock()
		now := s.now()
		for userID, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, userID)
			}
		}
		s.mu.Unlock()
	}
}
