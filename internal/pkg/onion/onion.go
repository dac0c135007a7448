// Package onion implements the layered symmetric encryption protecting
// identity fields at rest. N independent AES-256-GCM layers are applied in a
// fixed order: layer 1 seals first, layer N seals last; decryption unwraps in
// reverse. Each layer uses a fresh random nonce, so encrypting the same
// plaintext twice yields different ciphertexts.
package onion

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrDecrypt is returned whenever a layer fails to authenticate — tampered
// data, wrong keys, wrong layer order, or truncation. No partial recovery is
// attempted.
var ErrDecrypt = errors.New("onion: decrypt failed")

const keySize = 32

// Cipher holds the ordered layer AEADs plus a separate key for the
// deterministic blind index. Layer order is a protocol contract shared by
// every encrypt and decrypt call site.
type Cipher struct {
	layers   []cipher.AEAD
	indexKey []byte
}

// New derives one AES-256-GCM layer per secret via HKDF-SHA256, in the order
// given. A further HKDF expansion over all secrets (distinct label) yields the
// blind-index HMAC key, so index and confidentiality keys never coincide.
func New(secrets ...string) (*Cipher, error) {
	if len(secrets) == 0 {
		return nil, errors.New("onion: at least one key secret required")
	}
	c := &Cipher{}
	var all []byte
	for i, secret := range secrets {
		if secret == "" {
			return nil, fmt.Errorf("onion: layer %d secret is empty", i+1)
		}
		key, err := derive([]byte(secret), fmt.Sprintf("onion-layer-%d", i+1))
		if err != nil {
			return nil, err
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("onion: layer %d cipher: %w", i+1, err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("onion: layer %d AEAD: %w", i+1, err)
		}
		c.layers = append(c.layers, aead)
		all = append(all, secret...)
	}
	indexKey, err := derive(all, "blind-index")
	if err != nil {
		return nil, err
	}
	c.indexKey = indexKey
	return c, nil
}

func derive(secret []byte, label string) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(label)), key); err != nil {
		return nil, fmt.Errorf("onion: derive %s key: %w", label, err)
	}
	return key, nil
}

// Encrypt seals plaintext with every layer in order and returns the outermost
// ciphertext as base64. Each layer prepends its own random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	data := []byte(plaintext)
	for i, aead := range c.layers {
		nonce := make([]byte, aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return "", fmt.Errorf("onion: layer %d nonce: %w", i+1, err)
		}
		data = aead.Seal(nonce, nonce, data, nil)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decrypt unwraps a token produced by Encrypt, outermost layer first. Any
// authentication failure at any layer yields ErrDecrypt.
func (c *Cipher) Decrypt(token string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", ErrDecrypt)
	}
	for i := len(c.layers) - 1; i >= 0; i-- {
		aead := c.layers[i]
		if len(data) < aead.NonceSize() {
			return "", fmt.Errorf("%w: layer %d truncated", ErrDecrypt, i+1)
		}
		nonce, sealed := data[:aead.NonceSize()], data[aead.NonceSize():]
		data, err = aead.Open(nil, nonce, sealed, nil)
		if err != nil {
			return "", fmt.Errorf("%w: layer %d", ErrDecrypt, i+1)
		}
	}
	return string(data), nil
}

// Index returns the deterministic HMAC-SHA256 blind index of plaintext (hex).
// Equality lookup only — it must never stand in for the ciphertext columns.
func (c *Cipher) Index(plaintext string) string {
	mac := hmac.New(sha256.New, c.indexKey)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}
