package offline

import (
	"context"
	"log"
	"time"

	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/entities"
)

// ExportData is the user-data export with ledger amounts decrypted where
// readable.
type ExportData struct {
	ExportedAt   time.Time                 `json:"exported_at"`
	Transactions []TransactionView         `json:"transactions"`
	Lessons      []entities.LessonProgress `json:"lessons"`
	Preferences  []entities.Preference     `json:"preferences"`
}

// Unlock derives the ledger key from the user's secret. A result with
// SecretChanged means amounts written under the previous secret will show
// as unreadable.
func (f *Facade) Unlock(ctx context.Context, userID, secret string) (crypto.InitResult, error) {
	result, err := f.crypto.Initialize(ctx, userID, secret)
	if err != nil {
		return result, err
	}
	f.updateStatus(func(s *Status) { s.SecretChanged = result.SecretChanged })
	return result, nil
}

// RestoreSession unlocks identity-provider accounts that have no secret of
// their own. See crypto.Service.TryRestore for the trade-off.
func (f *Facade) RestoreSession(ctx context.Context, userID string) (crypto.InitResult, error) {
	result, err := f.crypto.TryRestore(ctx, userID)
	if err != nil {
		return result, err
	}
	f.updateStatus(func(s *Status) { s.SecretChanged = result.SecretChanged })
	return result, nil
}

// Lock drops the ledger key.
func (f *Facade) Lock() {
	f.crypto.Clear()
	f.updateStatus(func(s *Status) { s.SecretChanged = false })
}

// Export reads ledger, lesson progress and preferences from one consistent
// snapshot.
func (f *Facade) Export(ctx context.Context) (*ExportData, error) {
	snapshot, err := f.store.ExportSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportData{
		ExportedAt:   snapshot.ExportedAt,
		Transactions: f.views(snapshot.Transactions),
		Lessons:      snapshot.Lessons,
		Preferences:  userPreferences(snapshot.Preferences),
	}, nil
}

// Wipe deletes all local data, including queued mutations, and locks the
// ledger. Calling it again after a partial failure finishes the wipe.
func (f *Facade) Wipe(ctx context.Context) error {
	if err := f.store.ClearAll(ctx); err != nil {
		return err
	}
	f.Lock()
	log.Printf("Local data wiped")
	f.updateStatus(func(s *Status) {
		s.LastError = ""
		s.LastDrainAt = time.Time{}
	})
	return f.RefreshStatus(ctx)
}
