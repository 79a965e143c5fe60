package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/krishi/internal/entities"
	"github.com/mrlokans/krishi/internal/offline"
)

const dateLayout = "2006-01-02"

type LedgerAddCommand struct {
	storeFlags
	Type        string
	Amount      string
	Description string
	Category    string
	Date        string

	amount decimal.Decimal
	date   time.Time
}

func NewLedgerAddCommand() *LedgerAddCommand {
	return &LedgerAddCommand{}
}

func (cmd *LedgerAddCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("ledger-add", flag.ContinueOnError)
	cmd.register(fs, true)
	fs.StringVar(&cmd.Type, "type", "", "income or expense (required)")
	fs.StringVar(&cmd.Amount, "amount", "", "Amount in rupees, e.g. 500 or 1250.75 (required)")
	fs.StringVar(&cmd.Description, "desc", "", "Description")
	fs.StringVar(&cmd.Category, "category", "", "Category, e.g. seeds")
	fs.StringVar(&cmd.Date, "date", "", "Date as YYYY-MM-DD (default: today)")
	fs.Usage = usage(fs, "Record a ledger entry. It is queued for sync immediately.",
		"ledger-add -user farmer-1 -type expense -amount 500 -desc Fertilizer",
		"ledger-add -user farmer-1 -type income -amount 12000 -category wheat -date 2024-10-01")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmd.validateKey(); err != nil {
		return err
	}
	if !entities.TransactionType(cmd.Type).Valid() {
		return fmt.Errorf("-type must be income or expense")
	}
	amount, err := decimal.NewFromString(cmd.Amount)
	if err != nil {
		return fmt.Errorf("invalid -amount %q", cmd.Amount)
	}
	cmd.amount = amount
	if cmd.Date != "" {
		date, err := time.Parse(dateLayout, cmd.Date)
		if err != nil {
			return fmt.Errorf("invalid -date %q, want YYYY-MM-DD", cmd.Date)
		}
		cmd.date = date
	}
	return nil
}

func (cmd *LedgerAddCommand) Run() error {
	ctx := context.Background()
	app, err := cmd.open(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	in := offline.NewTransaction{
		Type:        entities.TransactionType(cmd.Type),
		Amount:      cmd.amount,
		Description: cmd.Description,
		Date:        cmd.date,
	}
	if cmd.Category != "" {
		in.Category = &cmd.Category
	}

	tx, err := app.Facade.AddTransaction(ctx, in)
	if err != nil {
		return err
	}
	pending, err := app.Facade.PendingCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.out(), "Recorded %s #%d of ₹%s (%d pending sync)\n", tx.Type, tx.ID, tx.Amount.StringFixed(2), pending)
	return nil
}

type LedgerListCommand struct {
	storeFlags
	Limit int
	Query string
}

func NewLedgerListCommand() *LedgerListCommand {
	return &LedgerListCommand{}
}

func (cmd *LedgerListCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("ledger-list", flag.ContinueOnError)
	cmd.register(fs, true)
	fs.IntVar(&cmd.Limit, "limit", 20, "Maximum entries to show, 0 for all")
	fs.StringVar(&cmd.Query, "q", "", "Only entries whose description or category contains this text")
	fs.Usage = usage(fs, "List ledger entries, newest first.",
		"ledger-list -user farmer-1 -limit 5",
		"ledger-list -user farmer-1 -q seeds")

	if err := fs.Parse(args); err != nil {
		return err
	}
	return cmd.validateKey()
}

func (cmd *LedgerListCommand) Run() error {
	ctx := context.Background()
	app, err := cmd.open(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	var rows []offline.TransactionView
	if strings.TrimSpace(cmd.Query) != "" {
		rows, err = app.Facade.SearchTransactions(ctx, cmd.Query)
	} else {
		rows, err = app.Facade.Transactions(ctx, cmd.Limit)
	}
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Fprintln(cmd.out(), "No ledger entries")
		return nil
	}

	w := tabwriter.NewWriter(cmd.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION\tSYNCED")
	for _, tx := range rows {
		amount := "[unreadable]"
		if tx.Amount != nil {
			amount = tx.Amount.StringFixed(2)
		}
		category := ""
		if tx.Category != nil {
			category = *tx.Category
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
			tx.ID, tx.Date.Format(dateLayout), tx.Type, amount, category, tx.Description, tx.Synced)
	}
	return w.Flush()
}

type BalanceCommand struct {
	storeFlags
}

func NewBalanceCommand() *BalanceCommand {
	return &BalanceCommand{}
}

func (cmd *BalanceCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	cmd.register(fs, true)
	fs.Usage = usage(fs, "Show income, expense and net over the whole ledger.",
		"balance -user farmer-1")

	if err := fs.Parse(args); err != nil {
		return err
	}
	return cmd.validateKey()
}

func (cmd *BalanceCommand) Run() error {
	ctx := context.Background()
	app, err := cmd.open(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	b, err := app.Facade.Balance(ctx)
	if err != nil {
		return err
	}

	out := cmd.out()
	fmt.Fprintf(out, "Income:  ₹%s\n", b.Income.StringFixed(2))
	fmt.Fprintf(out, "Expense: ₹%s\n", b.Expense.StringFixed(2))
	fmt.Fprintf(out, "Net:     ₹%s\n", b.Net.StringFixed(2))
	fmt.Fprintf(out, "Entries: %d\n", b.Counted)
	if !b.Complete() {
		fmt.Fprintf(out, "Unreadable entries not counted: %v\n", b.Unreadable)
	}
	return nil
}
