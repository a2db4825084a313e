// Package snapshot is the encrypted at-rest persistence boundary: on
// startup it hands the services a fully materialized ledger graph, and on
// exit the whole graph is written back, encrypted with a key derived from
// the configured passphrase.
package snapshot

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/crypto/argon2"

	"github.com/api-sage/retail-ledger/internal/adapter/repository/memory"
)

const keySaltLength = 16
const nonceLength = 12

type Vault struct {
	path       string
	passphrase []byte
}

func NewVault(path, passphrase string) *Vault {
	return &Vault{path: path, passphrase: []byte(passphrase)}
}

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Load reads and decrypts the snapshot, returning the materialized ledger. A
// missing file starts an empty ledger.
func (v *Vault) Load() (*memory.Store, error) {
	raw, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return memory.NewStore(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if len(raw) < keySaltLength+nonceLength {
		return nil, fmt.Errorf("snapshot file is truncated")
	}

	salt := raw[:keySaltLength]
	nonce := raw[keySaltLength : keySaltLength+nonceLength]
	ciphertext := raw[keySaltLength+nonceLength:]

	gcm, err := newGCM(deriveKey(v.passphrase, salt))
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}

	var state graphState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return decodeGraph(state)
}

// Save encrypts and writes the whole ledger graph.
func (v *Vault) Save(store *memory.Store) error {
	plaintext, err := json.Marshal(encodeGraph(store))
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	salt := make([]byte, keySaltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating key salt: %w", err)
	}
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	gcm, err := newGCM(deriveKey(v.passphrase, salt))
	if err != nil {
		return err
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	if err := os.WriteFile(v.path, out, 0o600); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing gcm: %w", err)
	}
	return gcm, nil
}
