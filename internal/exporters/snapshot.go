package exporters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/krishi/internal/offline"
)

// SnapshotExporter writes an export as indented JSON, one file per export.
type SnapshotExporter struct {
	ExportDir string
}

func NewSnapshotExporter(exportDir string) *SnapshotExporter {
	return &SnapshotExporter{ExportDir: exportDir}
}

// Export writes data to krishi-export-<timestamp>.json under ExportDir. The
// file is written to a temporary name first and renamed into place.
func (exporter *SnapshotExporter) Export(data *offline.ExportData) (ExportResult, error) {
	if data == nil {
		return ExportResult{}, fmt.Errorf("nothing to export")
	}
	if err := os.MkdirAll(exporter.ExportDir, 0o700); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	name := fmt.Sprintf("krishi-export-%s.json", data.ExportedAt.UTC().Format("20060102T150405Z"))
	outputPath := filepath.Join(exporter.ExportDir, name)

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to encode export: %w", err)
	}

	tmp, err := os.CreateTemp(exporter.ExportDir, name+".*.tmp")
	if err != nil {
		return ExportResult{}, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(body, '\n')); err != nil {
		tmp.Close()
		return ExportResult{}, err
	}
	if err := tmp.Close(); err != nil {
		return ExportResult{}, err
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return ExportResult{}, fmt.Errorf("failed to move export into place: %w", err)
	}

	return resultFor(outputPath, data), nil
}
