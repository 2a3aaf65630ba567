package crypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// Encryptor seals queued payloads with an age X25519 identity. A nil
// *Encryptor is valid: Seal and Open pass data through unchanged, which is
// what the server and worker use when no ENCRYPTION_KEY is configured.
type Encryptor struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// ErrMissingKey is returned by NewEncryptor for an empty identity string.
var ErrMissingKey = errors.New("encryption key is empty")

// NewEncryptor creates a new Encryptor from an age identity string
// (AGE-SECRET-KEY-1...). The server and worker must share the same key, so
// an empty key is an error rather than a fresh identity.
func NewEncryptor(key string) (*Encryptor, error) {
	if key == "" {
		return nil, ErrMissingKey
	}

	identity, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}

	return &Encryptor{
		identity:  identity,
		recipient: identity.Recipient(),
	}, nil
}

// GenerateKey generates a new age identity and returns it with its public
// recipient string.
func GenerateKey() (identityKey string, publicKey string, err error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("generating identity: %w", err)
	}
	return identity.String(), identity.Recipient().String(), nil
}

// Encrypt encrypts plaintext and returns the binary age ciphertext.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing encryptor: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts ciphertext produced by Encrypt.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), e.identity)
	if err != nil {
		return nil, fmt.Errorf("creating decryptor: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}

	return plaintext, nil
}

// Seal encrypts data, or returns it untouched on a nil receiver.
func (e *Encryptor) Seal(data []byte) ([]byte, error) {
	if e == nil {
		return data, nil
	}
	return e.Encrypt(data)
}

// Open reverses Seal.
func (e *Encryptor) Open(data []byte) ([]byte, error) {
	if e == nil {
		return data, nil
	}
	return e.Decrypt(data)
}

// PublicKey returns the recipient string for this identity.
func (e *Encryptor) PublicKey() string {
	return e.recipient.String()
}
