package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/krishi/internal/crypto"
	"github.com/mrlokans/krishi/internal/database"
	"github.com/mrlokans/krishi/internal/database/ledger"
	"github.com/mrlokans/krishi/internal/database/queue"
	"github.com/mrlokans/krishi/internal/entities"
	"github.com/mrlokans/krishi/internal/syncqueue"
)

// NewTransaction is a ledger entry as entered by the user.
type NewTransaction struct {
	Type        entities.TransactionType `json:"type"`
	Amount      decimal.Decimal          `json:"amount"`
	Description string                   `json:"description"`
	Category    *string                  `json:"category,omitempty"`
	// Date defaults to now.
	Date time.Time `json:"date"`
}

// TransactionUpdate changes the non-nil fields of a ledger entry.
type TransactionUpdate struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}

// TransactionView is a ledger entry with its amount decrypted. Amount is nil
// and Unreadable is true when the stored amount cannot be decrypted.
type TransactionView struct {
	ID          uint                     `json:"id"`
	RemoteID    *string                  `json:"remote_id,omitempty"`
	Type        entities.TransactionType `json:"type"`
	Amount      *decimal.Decimal         `json:"amount"`
	Unreadable  bool                     `json:"unreadable"`
	Description string                   `json:"description"`
	Category    *string                  `json:"category,omitempty"`
	Date        time.Time                `json:"date"`
	Synced      bool                     `json:"synced"`
	CreatedAt   time.Time                `json:"created_at"`
}

// Balance totals the readable ledger rows. Rows that fail to decrypt appear
// only in Unreadable.
type Balance struct {
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Net        decimal.Decimal `json:"net"`
	Counted    int             `json:"counted"`
	Unreadable []uint          `json:"unreadable"`
}

// Complete reports whether every row was included in the totals.
func (b Balance) Complete() bool {
	return len(b.Unreadable) == 0
}

// transactionPayload is the ledger document sent to the remote store. The
// amount stays encrypted.
type transactionPayload struct {
	LocalID         uint                     `json:"local_id"`
	Type            entities.TransactionType `json:"type"`
	AmountEncrypted string                   `json:"amount_encrypted"`
	Description     string                   `json:"description"`
	Category        *string                  `json:"category,omitempty"`
	Date            time.Time                `json:"date"`
	CreatedAt       time.Time                `json:"created_at"`
}

func payloadFor(row *entities.Transaction) transactionPayload {
	return transactionPayload{
		LocalID:         row.ID,
		Type:            row.Type,
		AmountEncrypted: row.Amount,
		Description:     row.Description,
		Category:        row.Category,
		Date:            row.Date,
		CreatedAt:       row.CreatedAt,
	}
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	return nil
}

func (f *Facade) encryptAmount(amount decimal.Decimal) (string, error) {
	if !f.crypto.Ready() {
		return "", ErrLocked
	}
	return f.crypto.Encrypt(amount.String())
}

func (f *Facade) decryptAmount(encoded string) (decimal.Decimal, error) {
	var text string
	if err := f.crypto.Decrypt(encoded, &text); err != nil {
		return decimal.Decimal{}, err
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %w", crypto.ErrDecryptionFailed, err)
	}
	return amount, nil
}

func (f *Facade) view(row entities.Transaction) TransactionView {
	v := TransactionView{
		ID:          row.ID,
		RemoteID:    row.RemoteID,
		Type:        row.Type,
		Description: row.Description,
		Category:    row.Category,
		Date:        row.Date,
		Synced:      row.Synced,
		CreatedAt:   row.CreatedAt,
	}
	amount, err := f.decryptAmount(row.Amount)
	if err != nil {
		v.Unreadable = true
		return v
	}
	v.Amount = &amount
	return v
}

// AddTransaction stores a new unsynced ledger entry and queues its create in
// the same local transaction. It returns as soon as both are written.
func (f *Facade) AddTransaction(ctx context.Context, in NewTransaction) (*TransactionView, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: type must be income or expense", ErrInvalidTransaction)
	}
	if err := validAmount(in.Amount); err != nil {
		return nil, err
	}
	encrypted, err := f.encryptAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	now := f.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	row := &entities.Transaction{
		Type:        in.Type,
		Amount:      encrypted,
		Description: strings.TrimSpace(in.Description),
		Category:    trimmed(in.Category),
		Date:        date.UTC(),
		CreatedAt:   now,
	}

	err = f.store.Atomic(ctx, func(tx *database.Store) error {
		if err := ledger.NewRepository(tx).Insert(ctx, row); err != nil {
			return err
		}
		body, err := json.Marshal(payloadFor(row))
		if err != nil {
			return err
		}
		entry, err := syncqueue.NewEntry(entities.SyncActionCreate, entities.CollectionTransactions, body, nil)
		if err != nil {
			return err
		}
		return queue.NewRepository(tx).Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	f.afterLedgerWrite(ctx)
	v := f.view(*row)
	return &v, nil
}

// UpdateTransaction edits a ledger entry. Synced rows queue an update; an
// unsynced row's pending create will carry the new values.
func (f *Facade) UpdateTransaction(ctx context.Context, id uint, in TransactionUpdate) (*TransactionView, error) {
	updates := map[string]any{}
	if in.Amount != nil {
		if err := validAmount(*in.Amount); err != nil {
			return nil, err
		}
		encrypted, err := f.encryptAmount(*in.Amount)
		if err != nil {
			return nil, err
		}
		updates["amount"] = encrypted
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		updates["category"] = trimmed(in.Category)
	}
	if in.Date != nil {
		updates["date"] = in.Date.UTC()
	}

	var updated *entities.Transaction
	err := f.store.Atomic(ctx, func(tx *database.Store) error {
		repo := ledger.NewRepository(tx)
		if err := repo.UpdateFields(ctx, id, updates); err != nil {
			return err
		}
		row, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		updated = row
		if !row.Synced || len(updates) == 0 {
			return nil
		}
		return enqueueFor(ctx, tx, entities.SyncActionUpdate, row)
	})
	if err != nil {
		return nil, err
	}

	f.afterLedgerWrite(ctx)
	v := f.view(*updated)
	return &v, nil
}

// DeleteTransaction removes a ledger entry. Synced rows queue a remote
// delete.
func (f *Facade) DeleteTransaction(ctx context.Context, id uint) error {
	err := f.store.Atomic(ctx, func(tx *database.Store) error {
		repo := ledger.NewRepository(tx)
		row, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		if !row.Synced {
			return nil
		}
		return enqueueFor(ctx, tx, entities.SyncActionDelete, row)
	})
	if err != nil {
		return err
	}
	f.afterLedgerWrite(ctx)
	return nil
}

func enqueueFor(ctx context.Context, tx *database.Store, action entities.SyncAction, row *entities.Transaction) error {
	var body []byte
	if action != entities.SyncActionDelete {
		var err error
		if body, err = json.Marshal(payloadFor(row)); err != nil {
			return err
		}
	}
	entry, err := syncqueue.NewEntry(action, entities.CollectionTransactions, body, row.RemoteID)
	if err != nil {
		return err
	}
	return queue.NewRepository(tx).Append(ctx, entry)
}

func (f *Facade) afterLedgerWrite(ctx context.Context) {
	if err := f.RefreshStatus(ctx); err != nil {
		log.Printf("[SYNC] Failed to refresh sync status: %v", err)
	}
	if f.monitor.Online() {
		f.scheduleDrain()
	}
}

// Transaction returns one ledger entry.
func (f *Facade) Transaction(ctx context.Context, id uint) (*TransactionView, error) {
	row, err := f.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := f.view(*row)
	return &v, nil
}

// Transactions returns ledger entries by date, newest first. A limit of zero
// or less returns all of them.
func (f *Facade) Transactions(ctx context.Context, limit int) ([]TransactionView, error) {
	rows, err := f.ledger.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return f.views(rows), nil
}

// SearchTransactions matches description and category.
func (f *Facade) SearchTransactions(ctx context.Context, query string) ([]TransactionView, error) {
	rows, err := f.ledger.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return f.views(rows), nil
}

func (f *Facade) views(rows []entities.Transaction) []TransactionView {
	out := make([]TransactionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, f.view(row))
	}
	return out
}

// Balance sums income minus expense over every readable row. The ledger is
// read in a single query so a concurrent write is either fully counted or
// not at all.
func (f *Facade) Balance(ctx context.Context) (Balance, error) {
	rows, err := f.ledger.All(ctx)
	if err != nil {
		return Balance{}, err
	}

	b := Balance{
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		Unreadable: []uint{},
	}
	for _, row := range rows {
		amount, err := f.decryptAmount(row.Amount)
		if err != nil {
			if !errors.Is(err, crypto.ErrDecryptionFailed) {
				return Balance{}, err
			}
			b.Unreadable = append(b.Unreadable, row.ID)
			continue
		}
		switch row.Type {
		case entities.TransactionIncome:
			b.Income = b.Income.Add(amount)
		case entities.TransactionExpense:
			b.Expense = b.Expense.Add(amount)
		default:
			b.Unreadable = append(b.Unreadable, row.ID)
			continue
		}
		b.Counted++
	}
	b.Net = b.Income.Sub(b.Expense)
	return b, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
