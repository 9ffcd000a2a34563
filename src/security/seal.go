package security

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrInvalidSealedToken = errors.New("sealed token is malformed or tampered")

// SealString encrypts an ad-account access token for storage. The output is
// nonce || ciphertext, using XChaCha20-Poly1305 with the key from
// AD_ACCOUNT_TOKEN_KEY.
func SealString(plaintext string) ([]byte, error) {
	aead, err := newAEAD()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// OpenString decrypts a token previously produced by SealString.
func OpenString(sealed []byte) (string, error) {
	aead, err := newAEAD()
	if err != nil {
		return "", err
	}

	if len(sealed) < aead.NonceSize() {
		return "", ErrInvalidSealedToken
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidSealedToken
	}

	return string(plaintext), nil
}

func newAEAD() (cipher.AEAD, error) {
	config := GetConfig()

	key, err := base64.StdEncoding.DecodeString(config.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("AD_ACCOUNT_TOKEN_KEY is not valid base64: %w", err)
	}

	return chacha20poly1305.NewX(key)
}
