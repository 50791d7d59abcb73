package main

import (
	"github.com/urfave/cli/v2"

	"github.com/dandanlen/xpub-scan/internal/core/application"
	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

var lookup = cli.Command{
	Name:  "lookup",
	Usage: "check one derivation position without running a full scan",
	Flags: []cli.Flag{
		keyFlag,
		currencyFlag,
		typesFlag,
		accountFlag,
		&cli.UintFlag{
			Name:     "index",
			Usage:    "address index on the receive chain",
			Required: true,
		},
		outputFlag,
		stdoutFlag,
		quietFlag,
	},
	Action: lookupAction,
}

func lookupAction(ctx *cli.Context) error {
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

	entries, err := scanner.ScanSpecific(
		ctx.Context, a.key, uint32(ctx.Uint("account")), uint32(ctx.Uint("index")), a.types,
	)
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
