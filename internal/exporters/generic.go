package exporters

import (
	"github.com/mrlokans/krishi/internal/offline"
)

// DataExporter writes a user-data export somewhere durable.
type DataExporter interface {
	Export(data *offline.ExportData) (ExportResult, error)
}

type ExportResult struct {
	Path                   string `json:"path"`
	TransactionsExported   int    `json:"transactions_exported"`
	TransactionsUnreadable int    `json:"transactions_unreadable"`
	LessonsExported        int    `json:"lessons_exported"`
	PreferencesExported    int    `json:"preferences_exported"`
}

func resultFor(path string, data *offline.ExportData) ExportResult {
	result := ExportResult{
		Path:                 path,
		TransactionsExported: len(data.Transactions),
		LessonsExported:      len(data.Lessons),
		PreferencesExported:  len(data.Preferences),
	}
	for _, tx := range data.Transactions {
		if tx.Unreadable {
			result.TransactionsUnreadable++
		}
	}
	return result
}
