package entities

import (
	"time"
)

// Preference is a single key-value setting. Value holds JSON.
type Preference struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (Preference) TableName() string {
	return "preferences"
}

func (Preference) Collection() Collection {
	return CollectionPreferences
}

func (p Preference) SearchFields() []string {
	return []string{p.Key}
}

// Known preference keys
const (
	PreferenceKeyLanguage = "language"
	PreferenceKeyDistrict = "district"
	PreferenceKeyState    = "state"

	// Prefix for the per-user secret check hash kept by the encryption service.
	PreferenceKeySecretHashPrefix = "encryption_secret_hash:"
)
