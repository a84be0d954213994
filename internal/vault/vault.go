// Package vault provides authenticated encryption for stored credentials
// and one-way hashing for verification.
//
// Blobs are base64(IV ‖ tag ‖ ciphertext) produced by AES-256-GCM with a
// fresh random IV per call. The working key is derived from the configured
// secret with scrypt so a short secret never becomes a weak raw key.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/scrypt"

	"github.com/feedgrid/feedgrid/internal/apperr"
)

const (
	ivLength  = 16
	tagLength = 16
	keyLength = 32

	// minSecretLength is the shortest configured secret accepted for
	// production use; anything shorter falls back to the insecure default.
	minSecretLength = 32

	// fallbackSecret keeps the vault functional when no secret is
	// configured. NOT SECURE FOR PRODUCTION.
	fallbackSecret = "fallback-key-change-me"

	// kdfSalt is application-wide. The KDF protects an operator-configured
	// secret, not per-user passwords, so per-record salts buy nothing here.
	kdfSalt = "salt"
)

// Vault encrypts, decrypts and hashes credential material with a key
// derived once at construction.
type Vault struct {
	key []byte
}

// New derives the working key from secret and returns a ready Vault.
// A missing or implausibly short secret does not fail construction:
// the vault switches to a clearly insecure fallback key and warns, since
// crashing the process would take the whole service down for what is a
// deployment bug.
func New(secret string, log *zap.Logger) (*Vault, error) {
	if len(secret) < minSecretLength {
		log.Warn("encryption secret not set or too short, using fallback key (NOT SECURE FOR PRODUCTION)")
		secret = fallbackSecret
	}

	key, err := scrypt.Key([]byte(secret), []byte(kdfSalt), 32768, 8, 1, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &Vault{key: key}, nil
}

// Encrypt seals plaintext into a base64 blob with a fresh random IV.
// Empty input yields an empty blob.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	// Seal appends ciphertext ‖ tag; the stored layout is IV ‖ tag ‖ ciphertext.
	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	blob := make([]byte, 0, ivLength+tagLength+len(ct))
	blob = append(blob, iv...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. It fails closed: a malformed
// blob, a wrong key or a tampered byte yields apperr.ErrDecryption, never
// corrupted plaintext. An empty blob yields an empty string.
func (v *Vault) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: decode blob: %v", apperr.ErrDecryption, err)
	}
	if len(raw) < ivLength+tagLength {
		return "", fmt.Errorf("%w: blob too short", apperr.ErrDecryption)
	}

	iv := raw[:ivLength]
	tag := raw[ivLength : ivLength+tagLength]
	ct := raw[ivLength+tagLength:]

	aead, err := v.aead()
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ct)+tagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrDecryption, err)
	}
	return string(plaintext), nil
}

// Hash returns the hex SHA-256 digest of text. Deterministic and one-way,
// used only for verification lookups.
func (v *Vault) Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}
