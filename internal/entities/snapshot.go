package entities

import "time"

// Snapshot is the user-data export: ledger, lesson progress and preferences.
// Caches and the sync queue are transient and excluded.
type Snapshot struct {
	ExportedAt   time.Time        `json:"exported_at"`
	Transactions []Transaction    `json:"transactions"`
	Lessons      []LessonProgress `json:"lessons"`
	Preferences  []Preference     `json:"preferences"`
}
