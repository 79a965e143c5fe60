package exporters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrlokans/krishi/internal/offline"
)

// UnreadablePlaceholder is printed instead of an amount that failed to decrypt.
const UnreadablePlaceholder = "[unreadable]"

// MarkdownExporter writes a human-readable ledger statement.
type MarkdownExporter struct {
	ExportDir string
	FileName  string
}

func NewMarkdownExporter(exportDir string) *MarkdownExporter {
	return &MarkdownExporter{
		ExportDir: exportDir,
		FileName:  "ledger.md",
	}
}

// GenerateStatement renders the ledger part of an export as markdown, oldest
// entry first. Unreadable amounts are shown as a placeholder and left out of
// the totals.
func GenerateStatement(data *offline.ExportData) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: ledger_statement\n")
	fmt.Fprintf(&builder, "exported_at: %s\n", data.ExportedAt.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&builder, "entries: %d\n", len(data.Transactions))
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "## Ledger\n\n")

	if len(data.Transactions) == 0 {
		fmt.Fprintf(&builder, "_No entries._\n")
		return builder.String()
	}

	rows := make([]offline.TransactionView, len(data.Transactions))
	copy(rows, data.Transactions)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	fmt.Fprintf(&builder, "| Date | Type | Amount | Category | Description |\n")
	fmt.Fprintf(&builder, "|---|---|---:|---|---|\n")

	var unreadable int
	for _, tx := range rows {
		amount := UnreadablePlaceholder
		if tx.Amount != nil {
			amount = tx.Amount.StringFixed(2)
		} else {
			unreadable++
		}
		category := ""
		if tx.Category != nil {
			category = *tx.Category
		}
		fmt.Fprintf(&builder, "| %s | %s | %s | %s | %s |\n",
			tx.Date.UTC().Format("2006-01-02"), tx.Type, amount, cell(category), cell(tx.Description))
	}

	if unreadable > 0 {
		fmt.Fprintf(&builder, "\n%d entries could not be decrypted with the current secret.\n", unreadable)
	}
	return builder.String()
}

// cell keeps free text from breaking the table.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func (exporter *MarkdownExporter) Export(data *offline.ExportData) (ExportResult, error) {
	if data == nil {
		return ExportResult{}, fmt.Errorf("nothing to export")
	}
	if err := os.MkdirAll(exporter.ExportDir, 0o700); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	outputPath := filepath.Join(exporter.ExportDir, exporter.FileName)
	if err := os.WriteFile(outputPath, []byte(GenerateStatement(data)), 0o600); err != nil {
		return ExportResult{}, err
	}
	return resultFor(outputPath, data), nil
}
