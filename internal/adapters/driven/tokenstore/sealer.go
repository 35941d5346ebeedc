package tokenstore

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// sealVersion is the version byte of the sealed blob format
	sealVersion = 0x01

	saltSize  = 16
	nonceSize = chacha20poly1305.NonceSizeX

	// argon2id parameters for deriving the sealing key from the passphrase
	kdfTime    = 2
	kdfMemory  = 19 * 1024
	kdfThreads = 1
)

var (
	// ErrEmptyPassphrase is returned when a sealer is created without a passphrase.
	ErrEmptyPassphrase = errors.New("token passphrase must not be empty")

	// ErrInvalidBlobSize is returned when the sealed blob is too small.
	ErrInvalidBlobSize = errors.New("sealed token blob is too small")

	// ErrUnsupportedVersion is returned when the blob version is not supported.
	ErrUnsupportedVersion = errors.New("unsupported sealed token version")

	// ErrDecryptionFailed is returned when opening fails (wrong passphrase or corrupted data).
	ErrDecryptionFailed = errors.New("failed to open sealed token")
)

// Sealer encrypts the persisted session token with XChaCha20-Poly1305.
// Each blob carries its own salt; the key is derived with argon2id.
// The sealed format is: version(1) || salt(16) || nonce(24) || ciphertext(N)
//
// A nil *Sealer stores tokens as plain bytes.
type Sealer struct {
	passphrase []byte
}

// NewSealer creates a sealer for the given passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return &Sealer{passphrase: []byte(passphrase)}, nil
}

func (s *Sealer) key(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
}

// Seal encrypts token into a versioned blob.
func (s *Sealer) Seal(token string) ([]byte, error) {
	head := make([]byte, 1+saltSize+nonceSize)
	head[0] = sealVersion
	if _, err := rand.Read(head[1:]); err != nil {
		return nil, fmt.Errorf("generate salt and nonce: %w", err)
	}
	salt := head[1 : 1+saltSize]
	nonce := head[1+saltSize:]

	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	// version and salt are authenticated as associated data
	return aead.Seal(head, nonce, []byte(token), head[:1+saltSize]), nil
}

// Open decrypts a blob produced by Seal.
func (s *Sealer) Open(blob []byte) (string, error) {
	if len(blob) < 1+saltSize+nonceSize+chacha20poly1305.Overhead {
		return "", fmt.Errorf("%w: got %d bytes", ErrInvalidBlobSize, len(blob))
	}
	if blob[0] != sealVersion {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedVersion, blob[0])
	}

	salt := blob[1 : 1+saltSize]
	nonce := blob[1+saltSize : 1+saltSize+nonceSize]
	ciphertext := blob[1+saltSize+nonceSize:]

	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, blob[:1+saltSize])
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// Encode converts a token into its stored form.
func (s *Sealer) Encode(token string) ([]byte, error) {
	if s == nil {
		return []byte(token), nil
	}
	return s.Seal(token)
}

// Decode converts a stored value back into a token.
// Empty input decodes to "".
func (s *Sealer) Decode(stored []byte) (string, error) {
	if len(stored) == 0 {
		return "", nil
	}
	if s == nil {
		return string(stored), nil
	}
	return s.Open(stored)
}
