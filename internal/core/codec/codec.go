// Package codec holds the pluggable column cipher for sensitive dimension
// attributes. Stores keep ciphertext and call Decode only when materializing
// values for display.
package codec

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	KindXChaCha  = "xchacha20poly1305"
	KindIdentity = "identity"
)

var ErrCiphertext = errors.New("malformed ciphertext")

// Codec encodes and decodes a single attribute value.
type Codec interface {
	Encode(plaintext, key []byte) (string, error)
	Decode(ciphertext string, key []byte) ([]byte, error)
}

// XChaCha seals values with XChaCha20-Poly1305 under a random 24-byte nonce.
// Output is base64(nonce || sealed).
type XChaCha struct{}

func (XChaCha) Encode(plaintext, key []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("xchacha encode: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("xchacha nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (XChaCha) Decode(ciphertext string, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("xchacha decode: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertext
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	return plain, nil
}

// Identity stores values as-is. Development and tests only.
type Identity struct{}

func (Identity) Encode(plaintext, _ []byte) (string, error) {
	return string(plaintext), nil
}

func (Identity) Decode(ciphertext string, _ []byte) ([]byte, error) {
	return []byte(ciphertext), nil
}

// Keyring binds a codec to its key so callers never handle the key directly.
type Keyring struct {
	codec Codec
	key   []byte
}

// NewKeyring builds a keyring for the named codec kind.
// keyHex must decode to chacha20poly1305.KeySize bytes for the xchacha kind.
func NewKeyring(kind, keyHex string) (*Keyring, error) {
	switch kind {
	case KindIdentity, "":
		return &Keyring{codec: Identity{}}, nil
	case KindXChaCha:
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("codec key is not hex: %w", err)
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("codec key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
		}
		return &Keyring{codec: XChaCha{}, key: key}, nil
	default:
		return nil, fmt.Errorf("unsupported codec kind %q", kind)
	}
}

// WithCodec builds a keyring from an explicit codec and key.
func WithCodec(c Codec, key []byte) *Keyring {
	return &Keyring{codec: c, key: key}
}

func (k *Keyring) Seal(plaintext string) (string, error) {
	return k.codec.Encode([]byte(plaintext), k.key)
}

func (k *Keyring) Open(ciphertext string) (string, error) {
	plain, err := k.codec.Decode(ciphertext, k.key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
