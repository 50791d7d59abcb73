package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/dandanlen/xpub-scan/internal/core/application"
	"github.com/dandanlen/xpub-scan/internal/core/domain"
	"github.com/dandanlen/xpub-scan/internal/infrastructure/importer"
)

var compare = cli.Command{
	Name:  "compare",
	Usage: "scan the key and reconcile the result against an imported operation file",
	Flags: []cli.Flag{
		keyFlag,
		currencyFlag,
		typesFlag,
		accountFlag,
		&cli.StringFlag{
			Name:  "account-range",
			Usage: "inclusive account range to scan, e.g. 0-3; overrides --account",
		},
		&cli.StringFlag{
			Name:     "import",
			Usage:    "CSV or JSON operation file to reconcile against",
			Required: true,
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
	Action: compareAction,
}

func compareAction(ctx *cli.Context) error {
	a, err := newAnalysis(ctx)
	if err != nil {
		return err
	}

	imported, err := importer.ParseFile(ctx.String("import"))
	if err != nil {
		return fmt.Errorf("importing operations: %w", err)
	}
	log.Infof("imported %d operation(s)", len(imported))

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
	comparisons := application.NewReconciliationService().Compare(imported, txs)

	report := application.BuildReport(application.ReportParams{
		Key:          a.key,
		Currency:     a.currency,
		Provider:     a.provider,
		GapLimit:     scannerGapLimit(ctx),
		Entries:      entries,
		Transactions: txs,
		Comparisons:  comparisons,
	})

	return writeOutput(ctx, a.key.Fingerprint(), report)
}
