package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// MinIterations is the PBKDF2-HMAC-SHA256 work factor floor.
const MinIterations = 100_000

var ErrEmptySecret = errors.New("encryption secret must not be empty")

const (
	keySaltDomain   = "krishi/ledger-key/v1:"
	checkSaltDomain = "krishi/secret-check/v1:"
)

// UserSalt returns the deterministic key salt for a user, so the same user
// and secret derive the same key on every device.
func UserSalt(userID string) []byte {
	sum := sha256.Sum256([]byte(keySaltDomain + userID))
	return sum[:]
}

// DeriveKey stretches secret with PBKDF2-HMAC-SHA256 into a 256-bit key and
// returns it sealed inside an Encryptor. Iteration counts below
// MinIterations are raised to it.
func DeriveKey(secret string, salt []byte, iterations int) (*Encryptor, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if iterations < MinIterations {
		iterations = MinIterations
	}

	key := pbkdf2.Key([]byte(secret), salt, iterations, KeySize, sha256.New)
	defer clear(key)

	return NewEncryptor(key)
}

// HashSecret computes the one-way check value used to notice that a user
// logged in with a different secret. It uses its own salt, so it reveals
// nothing about the encryption key and is not a credential.
func HashSecret(userID, secret string, iterations int) string {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	salt := sha256.Sum256([]byte(checkSaltDomain + userID))
	sum := pbkdf2.Key([]byte(secret), salt[:], iterations, sha256.Size, sha256.New)
	return hex.EncodeToString(sum)
}

func hashesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
