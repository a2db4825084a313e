package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const saltLength = 32
const digestLength = 32

// Credential stores a salted, key-stretched digest of a secret together with
// a bounded verification-attempt budget. The plaintext secret is wiped from
// memory on every path, including failures.
type Credential struct {
	salt        []byte
	digest      []byte
	iterations  int
	attempts    int
	maxAttempts int
}

// EnrollCredential derives a fresh credential from secret. The secret slice
// is wiped before returning.
func EnrollCredential(secret []byte, iterations, maxAttempts int) (*Credential, error) {
	defer Wipe(secret)

	if iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive")
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("maxAttempts must be positive")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	return &Credential{
		salt:        salt,
		digest:      pbkdf2.Key(secret, salt, iterations, digestLength, sha256.New),
		iterations:  iterations,
		maxAttempts: maxAttempts,
	}, nil
}

// Verify checks attempt against the stored digest. It fails closed without
// computing anything once the attempt budget is exhausted. A match resets the
// attempt counter; a mismatch increments it. The attempt slice is wiped
// before returning.
func (c *Credential) Verify(attempt []byte) bool {
	defer Wipe(attempt)

	if c.attempts >= c.maxAttempts {
		return false
	}

	candidate := pbkdf2.Key(attempt, c.salt, c.iterations, digestLength, sha256.New)
	if subtle.ConstantTimeCompare(candidate, c.digest) == 1 {
		c.attempts = 0
		return true
	}
	c.attempts++
	return false
}

// AttemptsRemaining reports whether further verification tries are permitted.
func (c *Credential) AttemptsRemaining() bool {
	return c.attempts < c.maxAttempts
}

func (c *Credential) ResetAttempts() {
	c.attempts = 0
}

// CredentialState is the persistable form of a Credential.
type CredentialState struct {
	Salt        []byte `json:"salt"`
	Digest      []byte `json:"digest"`
	Iterations  int    `json:"iterations"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"maxAttempts"`
}

func (c *Credential) State() CredentialState {
	return CredentialState{
		Salt:        c.salt,
		Digest:      c.digest,
		Iterations:  c.iterations,
		Attempts:    c.attempts,
		MaxAttempts: c.maxAttempts,
	}
}

// RestoreCredential rebuilds a credential from its persisted state.
func RestoreCredential(state CredentialState) *Credential {
	return &Credential{
		salt:        state.Salt,
		digest:      state.Digest,
		iterations:  state.Iterations,
		attempts:    state.Attempts,
		maxAttempts: state.MaxAttempts,
	}
}

// Wipe zeroes a secret-bearing slice.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
