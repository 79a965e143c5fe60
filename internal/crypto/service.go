package crypto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotInitialized is returned when no session key is held.
	ErrNotInitialized = errors.New("encryption service not initialized")
	ErrEmptyUserID    = errors.New("user id is required")
)

// SecretHashStore persists the per-user secret check hash.
type SecretHashStore interface {
	// SecretHash returns "" when no hash is stored for the user.
	SecretHash(ctx context.Context, userID string) (string, error)
	SaveSecretHash(ctx context.Context, userID, hash string) error
}

// InitResult describes what Initialize found in the stored secret hash.
type InitResult struct {
	// FirstUse is true when no hash was stored for this user before.
	FirstUse bool `json:"first_use"`
	// SecretChanged is true when the stored hash came from a different
	// secret. Data encrypted under that secret will not decrypt.
	SecretChanged bool `json:"secret_changed"`
}

// Service holds the session key. Initialize and Clear replace it; Encrypt and
// Decrypt read it without locking.
type Service struct {
	hashes     SecretHashStore
	iterations int

	writeMu sync.Mutex
	key     atomic.Pointer[Encryptor]
	userID  atomic.Value
}

// NewService creates a service that keeps secret hashes in hashes.
// iterations below MinIterations are raised to it.
func NewService(hashes SecretHashStore, iterations int) *Service {
	if iterations < MinIterations {
		iterations = MinIterations
	}
	return &Service{hashes: hashes, iterations: iterations}
}

// Initialize derives the session key from secret and checks it against the
// stored secret hash for userID. Only the first secret's hash is saved: a
// mismatch leaves it in place, so every later login under another secret is
// reported until local data is wiped.
func (s *Service) Initialize(ctx context.Context, userID, secret string) (InitResult, error) {
	if userID == "" {
		return InitResult{}, ErrEmptyUserID
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	key, err := DeriveKey(secret, UserSalt(userID), s.iterations)
	if err != nil {
		return InitResult{}, err
	}

	var result InitResult
	hash := HashSecret(userID, secret, s.iterations)
	if s.hashes != nil {
		stored, err := s.hashes.SecretHash(ctx, userID)
		if err != nil {
			return InitResult{}, fmt.Errorf("load secret hash: %w", err)
		}
		switch {
		case stored == "":
			result.FirstUse = true
		case !hashesEqual(stored, hash):
			result.SecretChanged = true
			log.Printf("[CRYPTO] Secret for user %s differs from the one used before; older amounts may be unreadable", userID)
		}
		if stored == "" {
			if err := s.hashes.SaveSecretHash(ctx, userID, hash); err != nil {
				return InitResult{}, fmt.Errorf("save secret hash: %w", err)
			}
		}
	}

	s.key.Store(key)
	s.userID.Store(userID)
	return result, nil
}

// TryRestore initializes the session for identity-provider logins, where the
// user never types a password, by using userID itself as the secret.
//
// This is weaker than a user-chosen secret: anyone who learns the identifier
// can derive the same key.
func (s *Service) TryRestore(ctx context.Context, userID string) (InitResult, error) {
	return s.Initialize(ctx, userID, userID)
}

// Clear drops the session key. The stored secret hash is kept so a later
// login with a different secret is still noticed.
func (s *Service) Clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.key.Store(nil)
	s.userID.Store("")
}

// Ready reports whether a session key is held.
func (s *Service) Ready() bool {
	return s.key.Load() != nil
}

// UserID returns the user the session key belongs to, or "".
func (s *Service) UserID() string {
	id, _ := s.userID.Load().(string)
	return id
}

// Encrypt JSON-encodes v and seals it under the session key with a fresh nonce.
func (s *Service) Encrypt(v any) (string, error) {
	key := s.key.Load()
	if key == nil {
		return "", ErrNotInitialized
	}
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode plaintext: %w", err)
	}
	return key.Seal(plaintext)
}

// Decrypt opens encoded and JSON-decodes the result into out. Any failure,
// including a missing key, wraps ErrDecryptionFailed.
func (s *Service) Decrypt(encoded string, out any) error {
	key := s.key.Load()
	if key == nil {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, ErrNotInitialized)
	}
	plaintext, err := key.Open(encoded)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: failed to decode plaintext: %w", ErrDecryptionFailed, err)
	}
	return nil
}
