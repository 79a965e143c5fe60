package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"
)

type SyncStatusCommand struct {
	storeFlags
	Entries bool
}

func NewSyncStatusCommand() *SyncStatusCommand {
	return &SyncStatusCommand{}
}

func (cmd *SyncStatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync-status", flag.ContinueOnError)
	cmd.register(fs, false)
	fs.BoolVar(&cmd.Entries, "entries", false, "List every queued mutation")
	fs.Usage = usage(fs, "Show how many local changes are waiting to reach the remote store.",
		"sync-status",
		"sync-status -entries")
	return fs.Parse(args)
}

func (cmd *SyncStatusCommand) Run() error {
	ctx := context.Background()
	app, err := cmd.open(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Facade.RefreshStatus(ctx); err != nil {
		return err
	}
	status := app.Facade.Status()

	out := cmd.out()
	fmt.Fprintf(out, "Pending: %d\n", status.Pending)
	fmt.Fprintf(out, "Stuck:   %d\n", status.Stuck)

	if !cmd.Entries {
		return nil
	}
	entries, err := app.Facade.PendingEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nID\tQUEUED\tACTION\tCOLLECTION\tRETRIES")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", e.ID, e.CreatedAt.Format(time.RFC3339), e.Action, e.Target, e.Retries)
	}
	return w.Flush()
}
