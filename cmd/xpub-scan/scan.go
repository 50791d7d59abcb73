package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/dandanlen/xpub-scan/internal/core/application"
	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

var scan = cli.Command{
	Name:  "scan",
	Usage: "discover every active address of the key and report balances and transactions",
	Flags: []cli.Flag{
		keyFlag,
		currencyFlag,
		typesFlag,
		accountFlag,
		&cli.StringFlag{
			Name:  "account-range",
			Usage: "inclusive account range to scan, e.g. 0-3; overrides --account",
		},
		&cli.IntFlag{
			Name:  "gap-limit",
			Usage: "consecutive unused addresses that end a chain scan",
		},
		&cli.BoolFlag{
			Name:  "cache",
			Usage: "reuse and update the on-disk scan cache",
		},
		outputFlag,
		stdoutFlag,
		quietFlag,
	},
	Action: scanAction,
}

func scanAction(ctx *cli.Context) error {
	a, err := newAnalysis(ctx)
	if err != nil {
		return err
	}
	if err := a.connectProvider(); err != nil {
		return err
	}

	scanner, err := a.newScanner(ctx)
	if err != nil {
		return err
	}
	defer a.cleanup()

	accounts, err := parseAccounts(ctx)
	if err != nil {
		return err
	}

	entries, err := scanAccounts(ctx.Context, a, scanner, accounts)
	if err != nil {
		return err
	}

	book := domain.NewAddressBook(entries)
	txs := application.BuildTransactions(entries, book)

	report := application.BuildReport(application.ReportParams{
		Key:          a.key,
		Currency:     a.currency,
		Provider:     a.provider,
		GapLimit:     scannerGapLimit(ctx),
		Entries:      entries,
		Transactions: txs,
	})

	return writeOutput(ctx, a.key.Fingerprint(), report)
}

// scanAccounts runs the full account scan for every requested account and
// concatenates the entries in account order.
func scanAccounts(
	ctx context.Context,
	a *analysis,
	scanner *application.ScannerService,
	accounts []uint32,
) ([]domain.ScanEntry, error) {
	all := make([]domain.ScanEntry, 0)
	for _, account := range accounts {
		log.Infof("scanning account %d", account)
		entries, err := scanner.ScanAccount(ctx, a.key, account, a.types)
		if err != nil {
			return nil, fmt.Errorf("scanning account %d: %w", account, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}
