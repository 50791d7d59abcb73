package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/dandanlen/xpub-scan/config"
)

var (
	keyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "extended public key to analyze (xpub, ypub, zpub, tpub, ...)",
		Required: true,
	}
	currencyFlag = &cli.StringFlag{
		Name:  "currency",
		Usage: "asset whose address encodings are scanned (btc, bch)",
		Value: "btc",
	}
	typesFlag = &cli.StringSliceFlag{
		Name:  "type",
		Usage: "address encoding to include (legacy, p2sh-segwit, native-segwit, cashaddr); repeatable, defaults to the key's conventional encodings",
	}
	accountFlag = &cli.UintFlag{
		Name:  "account",
		Usage: "account level index to scan",
		Value: 0,
	}
	outputFlag = &cli.StringFlag{
		Name:  "output",
		Usage: "directory the report file is written to",
		Value: ".",
	}
	stdoutFlag = &cli.BoolFlag{
		Name:  "stdout",
		Usage: "write the report to stdout instead of a file",
	}
	quietFlag = &cli.BoolFlag{
		Name:  "quiet",
		Usage: "suppress progress output",
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "xpub-scan CLI"
	app.Usage = "derive, scan and audit the address space of an extended public key"
	app.Before = setupLogger
	app.Commands = append(
		app.Commands,
		&scan,
		&lookup,
		&compare,
		&search,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func setupLogger(ctx *cli.Context) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[xpub-scan] %v\n", err)
	os.Exit(1)
}
