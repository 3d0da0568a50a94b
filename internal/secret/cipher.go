package secret

import (
	"fmt"
	"strings"

	"github.com/fernet/fernet-go"
)

// Cipher encrypts and decrypts SMTP secrets with a fernet key. Tokens are
// not given a TTL: a stored credential stays valid until replaced.
type Cipher struct {
	keys []*fernet.Key
}

// NewCipher builds a cipher from a base64url-encoded 32-byte fernet key.
func NewCipher(key string) (*Cipher, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	keys, err := fernet.DecodeKeys(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret key: %w", err)
	}

	return &Cipher{keys: keys}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if c == nil || len(c.keys) == 0 {
		return "", fmt.Errorf("cipher is not initialized")
	}

	token, err := fernet.EncryptAndSign([]byte(plaintext), c.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret: %w", err)
	}

	return string(token), nil
}

func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if c == nil || len(c.keys) == 0 {
		return "", fmt.Errorf("cipher is not initialized")
	}

	plaintext := fernet.VerifyAndDecrypt([]byte(ciphertext), 0, c.keys)
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt secret: invalid token")
	}

	return string(plaintext), nil
}
