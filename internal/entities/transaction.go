package entities

import (
	"time"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction is a ledger row as persisted locally. Amount holds the
// encrypted, base64-encoded amount; plaintext amounts are never stored.
//
// A row without a RemoteID is unsynced. Once MarkSynced attaches a RemoteID
// the row is Synced and is never enqueued for creation again.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	RemoteID    *string         `gorm:"size:128;index" json:"remote_id,omitempty"`
	Type        TransactionType `gorm:"size:16;not null;index" json:"type"`
	Amount      string          `gorm:"type:text;not null" json:"amount_encrypted"`
	Description string          `gorm:"type:text" json:"description"`
	Category    *string         `gorm:"size:64;index" json:"category,omitempty"`
	Date        time.Time       `gorm:"index;not null" json:"date"`
	Synced      bool            `gorm:"not null;default:false;index" json:"synced"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (Transaction) Collection() Collection {
	return CollectionTransactions
}

func (t Transaction) SearchFields() []string {
	fields := []string{t.Description}
	if t.Category != nil {
		fields = append(fields, *t.Category)
	}
	return fields
}
