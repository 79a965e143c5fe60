package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/krishi/internal/cli"
	"github.com/mrlokans/krishi/internal/config"
	"github.com/mrlokans/krishi/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	config.LoadDotEnv()

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	switch name {
	case "version":
		fmt.Printf("krishi %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	}

	cmd, ok := newCommand(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand returns the subcommand registered under name.
func newCommand(name string) (command, bool) {
	switch name {
	case "ledger-add":
		return cli.NewLedgerAddCommand(), true
	case "ledger-list":
		return cli.NewLedgerListCommand(), true
	case "balance":
		return cli.NewBalanceCommand(), true
	case "sync-status":
		return cli.NewSyncStatusCommand(), true
	case "export":
		return cli.NewExportCommand(), true
	case "wipe":
		return cli.NewWipeCommand(), true
	}
	return nil, false
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve         Start the local API (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  ledger-add    Record an income or expense entry\n")
	fmt.Fprintf(os.Stderr, "  ledger-list   List ledger entries\n")
	fmt.Fprintf(os.Stderr, "  balance       Show ledger totals\n")
	fmt.Fprintf(os.Stderr, "  sync-status   Show changes waiting to sync\n")
	fmt.Fprintf(os.Stderr, "  export        Export user data with amounts decrypted\n")
	fmt.Fprintf(os.Stderr, "  wipe          Delete all local data\n")
	fmt.Fprintf(os.Stderr, "  version       Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
