package cli

import (
	"context"
	"flag"
	"fmt"
)

type WipeCommand struct {
	storeFlags
	Yes bool
}

func NewWipeCommand() *WipeCommand {
	return &WipeCommand{}
}

func (cmd *WipeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("wipe", flag.ContinueOnError)
	cmd.register(fs, false)
	fs.BoolVar(&cmd.Yes, "yes", false, "Confirm deleting all local data (required)")
	fs.Usage = usage(fs, "Delete every local collection, including changes not yet synced.",
		"wipe -yes")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cmd.Yes {
		return fmt.Errorf("refusing to wipe without -yes")
	}
	return nil
}

func (cmd *WipeCommand) Run() error {
	ctx := context.Background()
	app, err := cmd.open(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	pending, err := app.Facade.PendingCount(ctx)
	if err != nil {
		return err
	}
	if err := app.Facade.Wipe(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.out(), "Local data wiped (%d unsynced changes discarded)\n", pending)
	return nil
}
