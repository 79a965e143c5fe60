package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/krishi/internal/config"
	"github.com/mrlokans/krishi/internal/entrypoint"
)

// SecretEnv names the environment variable read when -secret is not given.
const SecretEnv = "KRISHI_SECRET"

// storeFlags are shared by every command that opens the local store.
type storeFlags struct {
	DatabasePath string
	UserID       string
	Secret       string

	// Out receives command output. Default: os.Stdout
	Out io.Writer
}

func (f *storeFlags) register(fs *flag.FlagSet, withKey bool) {
	fs.StringVar(&f.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local store")
	if withKey {
		fs.StringVar(&f.UserID, "user", "", "Account ID the ledger key belongs to (required)")
		fs.StringVar(&f.Secret, "secret", "", "Account secret (default: $"+SecretEnv+")")
	}
}

func (f *storeFlags) validateKey() error {
	if f.Secret == "" {
		f.Secret = os.Getenv(SecretEnv)
	}
	if f.UserID == "" {
		return fmt.Errorf("-user is required")
	}
	if f.Secret == "" {
		return fmt.Errorf("-secret or %s is required", SecretEnv)
	}
	return nil
}

func (f *storeFlags) out() io.Writer {
	if f.Out == nil {
		return os.Stdout
	}
	return f.Out
}

// open builds the data layer from the environment, pointed at -db. With
// unlock it also derives the ledger key.
func (f *storeFlags) open(ctx context.Context, unlock bool) (*entrypoint.App, error) {
	cfg := config.NewConfig()
	cfg.Database.Path = f.DatabasePath

	app, err := entrypoint.Build(cfg)
	if err != nil {
		return nil, err
	}
	if !unlock {
		return app, nil
	}

	result, err := app.Facade.Unlock(ctx, f.UserID, f.Secret)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("unlock ledger: %w", err)
	}
	if result.SecretChanged {
		fmt.Fprintf(os.Stderr, "Warning: secret differs from the one used before; older amounts will be unreadable\n")
	}
	return app, nil
}

func usage(fs *flag.FlagSet, summary string, examples ...string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [options]\n\n", os.Args[0], fs.Name())
		fmt.Fprintf(os.Stderr, "%s\n\n", summary)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		if len(examples) > 0 {
			fmt.Fprintf(os.Stderr, "\nExamples:\n")
			for _, e := range examples {
				fmt.Fprintf(os.Stderr, "  %s %s\n", os.Args[0], e)
			}
		}
	}
}
