package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/mrlokans/krishi/internal/config"
	"github.com/mrlokans/krishi/internal/exporters"
)

type ExportCommand struct {
	storeFlags
	Dir    string
	Format string
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.register(fs, true)
	fs.StringVar(&cmd.Dir, "dir", config.DefaultExportDir, "Directory to write the export to")
	fs.StringVar(&cmd.Format, "format", "json", "json (full snapshot) or markdown (ledger statement)")
	fs.Usage = usage(fs, "Export the ledger, lesson progress and preferences with amounts decrypted.",
		"export -user farmer-1 -dir ./backup",
		"export -user farmer-1 -format markdown")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := cmd.exporter(); err != nil {
		return err
	}
	return cmd.validateKey()
}

func (cmd *ExportCommand) exporter() (exporters.DataExporter, error) {
	switch cmd.Format {
	case "json":
		return exporters.NewSnapshotExporter(cmd.Dir), nil
	case "markdown", "md":
		return exporters.NewMarkdownExporter(cmd.Dir), nil
	}
	return nil, fmt.Errorf("unknown -format %q", cmd.Format)
}

func (cmd *ExportCommand) Run() error {
	ctx := context.Background()
	app, err := cmd.open(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	exporter, err := cmd.exporter()
	if err != nil {
		return err
	}
	data, err := app.Facade.Export(ctx)
	if err != nil {
		return err
	}
	result, err := exporter.Export(data)
	if err != nil {
		return err
	}

	out := cmd.out()
	fmt.Fprintf(out, "Exported to %s\n", result.Path)
	fmt.Fprintf(out, "Ledger entries: %d", result.TransactionsExported)
	if result.TransactionsUnreadable > 0 {
		fmt.Fprintf(out, " (%d unreadable)", result.TransactionsUnreadable)
	}
	fmt.Fprintf(out, "\nLessons: %d\nPreferences: %d\n", result.LessonsExported, result.PreferencesExported)
	return nil
}
