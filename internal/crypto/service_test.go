package crypto

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHashes struct {
	mu     sync.Mutex
	hashes map[string]string
	err    error
}

func newMemoryHashes() *memoryHashes {
	return &memoryHashes{hashes: map[string]string{}}
}

func (m *memoryHashes) SecretHash(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.hashes[userID], nil
}

func (m *memoryHashes) SaveSecretHash(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.hashes[userID] = hash
	return nil
}

func TestDeriveKey(t *testing.T) {
	t.Run("same secret and salt derive the same key", func(t *testing.T) {
		a, err := DeriveKey("hunter22", UserSalt("farmer-1"), MinIterations)
		require.NoError(t, err)
		b, err := DeriveKey("hunter22", UserSalt("farmer-1"), MinIterations)
		require.NoError(t, err)

		sealed, err := a.Seal([]byte("42"))
		require.NoError(t, err)
		opened, err := b.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, []byte("42"), opened)
	})

	t.Run("different users derive different keys", func(t *testing.T) {
		a, err := DeriveKey("hunter22", UserSalt("farmer-1"), MinIterations)
		require.NoError(t, err)
		b, err := DeriveKey("hunter22", UserSalt("farmer-2"), MinIterations)
		require.NoError(t, err)

		sealed, err := a.Seal([]byte("42"))
		require.NoError(t, err)
		_, err = b.Open(sealed)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("iterations below the floor are raised", func(t *testing.T) {
		low, err := DeriveKey("hunter22", UserSalt("farmer-1"), 1)
		require.NoError(t, err)
		floor, err := DeriveKey("hunter22", UserSalt("farmer-1"), MinIterations)
		require.NoError(t, err)

		sealed, err := low.Seal([]byte("1"))
		require.NoError(t, err)
		_, err = floor.Open(sealed)
		assert.NoError(t, err)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := DeriveKey("", UserSalt("farmer-1"), MinIterations)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})

	t.Run("salt is deterministic", func(t *testing.T) {
		assert.Equal(t, UserSalt("farmer-1"), UserSalt("farmer-1"))
		assert.NotEqual(t, UserSalt("farmer-1"), UserSalt("farmer-2"))
	})
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("encrypt before initialize", func(t *testing.T) {
		svc := NewService(newMemoryHashes(), MinIterations)
		assert.False(t, svc.Ready())

		_, err := svc.Encrypt("500")
		assert.ErrorIs(t, err, ErrNotInitialized)

		var out string
		err = svc.Decrypt("anything", &out)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("round trip values", func(t *testing.T) {
		svc := NewService(newMemoryHashes(), MinIterations)
		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		assert.True(t, svc.Ready())
		assert.Equal(t, "farmer-1", svc.UserID())

		type payload struct {
			Amount string `json:"amount"`
			Note   string `json:"note"`
		}
		in := payload{Amount: "500.00", Note: "खाद"}
		sealed, err := svc.Encrypt(in)
		require.NoError(t, err)

		var out payload
		require.NoError(t, svc.Decrypt(sealed, &out))
		assert.Equal(t, in, out)
	})

	t.Run("nonces never repeat", func(t *testing.T) {
		svc := NewService(newMemoryHashes(), MinIterations)
		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)

		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			sealed, err := svc.Encrypt("500")
			require.NoError(t, err)
			assert.False(t, seen[sealed])
			seen[sealed] = true
		}
	})

	t.Run("wrong secret fails to decrypt", func(t *testing.T) {
		hashes := newMemoryHashes()
		svc := NewService(hashes, MinIterations)
		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		sealed, err := svc.Encrypt("500")
		require.NoError(t, err)

		other := NewService(hashes, MinIterations)
		_, err = other.Initialize(ctx, "farmer-1", "battery staple")
		require.NoError(t, err)

		var out string
		err = other.Decrypt(sealed, &out)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("clear drops the key", func(t *testing.T) {
		svc := NewService(newMemoryHashes(), MinIterations)
		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		sealed, err := svc.Encrypt("500")
		require.NoError(t, err)

		svc.Clear()
		assert.False(t, svc.Ready())
		assert.Empty(t, svc.UserID())

		var out string
		assert.ErrorIs(t, svc.Decrypt(sealed, &out), ErrDecryptionFailed)
	})

	t.Run("re-initialize with same secret restores access", func(t *testing.T) {
		svc := NewService(newMemoryHashes(), MinIterations)
		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		sealed, err := svc.Encrypt("500")
		require.NoError(t, err)

		svc.Clear()
		_, err = svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)

		var out string
		require.NoError(t, svc.Decrypt(sealed, &out))
		assert.Equal(t, "500", out)
	})

	t.Run("empty user id", func(t *testing.T) {
		svc := NewService(newMemoryHashes(), MinIterations)
		_, err := svc.Initialize(ctx, "", "secret")
		assert.ErrorIs(t, err, ErrEmptyUserID)
		assert.False(t, svc.Ready())
	})
}

func TestServiceSecretCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("first use then same secret", func(t *testing.T) {
		hashes := newMemoryHashes()
		svc := NewService(hashes, MinIterations)

		result, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		assert.True(t, result.FirstUse)
		assert.False(t, result.SecretChanged)
		assert.NotEmpty(t, hashes.hashes["farmer-1"])
		assert.NotContains(t, hashes.hashes["farmer-1"], "correct horse")

		result, err = svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		assert.False(t, result.FirstUse)
		assert.False(t, result.SecretChanged)
	})

	t.Run("changed secret is reported on every login", func(t *testing.T) {
		hashes := newMemoryHashes()
		svc := NewService(hashes, MinIterations)

		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		first := hashes.hashes["farmer-1"]

		for i := 0; i < 2; i++ {
			svc.Clear()
			result, err := svc.Initialize(ctx, "farmer-1", "battery staple")
			require.NoError(t, err)
			assert.True(t, result.SecretChanged, "login %d", i+1)
			assert.Equal(t, first, hashes.hashes["farmer-1"])
		}

		svc.Clear()
		result, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)
		assert.False(t, result.SecretChanged)
	})

	t.Run("clear keeps the stored hash", func(t *testing.T) {
		hashes := newMemoryHashes()
		svc := NewService(hashes, MinIterations)
		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		require.NoError(t, err)

		svc.Clear()
		assert.NotEmpty(t, hashes.hashes["farmer-1"])
	})

	t.Run("hash store failure aborts initialize", func(t *testing.T) {
		hashes := newMemoryHashes()
		hashes.err = errors.New("disk gone")
		svc := NewService(hashes, MinIterations)

		_, err := svc.Initialize(ctx, "farmer-1", "correct horse")
		assert.Error(t, err)
		assert.False(t, svc.Ready())
	})

	t.Run("try restore uses the user id", func(t *testing.T) {
		svc := NewService(newMemoryHashes(), MinIterations)
		_, err := svc.TryRestore(ctx, "google-oauth2|123")
		require.NoError(t, err)
		sealed, err := svc.Encrypt("500")
		require.NoError(t, err)

		other := NewService(newMemoryHashes(), MinIterations)
		_, err = other.Initialize(ctx, "google-oauth2|123", "google-oauth2|123")
		require.NoError(t, err)

		var out string
		require.NoError(t, other.Decrypt(sealed, &out))
		assert.Equal(t, "500", out)
	})

	t.Run("hash differs from key derivation", func(t *testing.T) {
		assert.Equal(t, HashSecret("u", "s", MinIterations), HashSecret("u", "s", MinIterations))
		assert.NotEqual(t, HashSecret("u", "s", MinIterations), HashSecret("u", "t", MinIterations))
	})
}
