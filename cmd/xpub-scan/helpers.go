package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/dandanlen/xpub-scan/config"
	"github.com/dandanlen/xpub-scan/internal/core/application"
	"github.com/dandanlen/xpub-scan/internal/core/domain"
	dbbadger "github.com/dandanlen/xpub-scan/internal/infrastructure/storage/db/badger"
	"github.com/dandanlen/xpub-scan/pkg/explorer"
)

// analysis bundles everything a command needs to run against one key.
type analysis struct {
	key      *domain.ExtendedKey
	currency domain.Currency
	provider explorer.Service
	deriver  *application.DerivationService
	types    []domain.AddressType
	cleanup  func()
}

// newAnalysis parses and validates the shared flags of every command. The
// quiet flag raises the log level so only warnings and errors surface. The
// provider is wired separately; a pattern search never touches the network.
func newAnalysis(ctx *cli.Context) (*analysis, error) {
	if ctx.Bool("quiet") {
		log.SetLevel(log.WarnLevel)
	}

	currency, err := domain.ParseCurrency(ctx.String("currency"))
	if err != nil {
		return nil, err
	}

	key, err := domain.NewExtendedKey(ctx.String("key"))
	if err != nil {
		return nil, err
	}

	types, err := resolveTypes(ctx, key)
	if err != nil {
		return nil, err
	}

	return &analysis{
		key:      key,
		currency: currency,
		deriver:  application.NewDerivationService(currency),
		types:    types,
		cleanup:  func() {},
	}, nil
}

// connectProvider wires the explorer service the environment selects. The
// constructor health-checks the endpoint, so a dead provider fails here.
func (a *analysis) connectProvider() error {
	provider, err := config.GetExplorer()
	if err != nil {
		return fmt.Errorf("connecting to explorer: %w", err)
	}
	a.provider = provider
	return nil
}

// resolveTypes returns the encodings requested via --type, falling back to
// the encodings the key's version prefix pins.
func resolveTypes(ctx *cli.Context, key *domain.ExtendedKey) ([]domain.AddressType, error) {
	requested := ctx.StringSlice("type")
	if len(requested) == 0 {
		return key.DefaultAddressTypes(), nil
	}

	types := make([]domain.AddressType, 0, len(requested))
	for _, s := range requested {
		addrType, err := domain.ParseAddressType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, addrType)
	}
	return types, nil
}

// newScanner builds the gap scanner, backed by the on-disk scan cache when
// the cache flag is set.
func (a *analysis) newScanner(ctx *cli.Context) (*application.ScannerService, error) {
	var repo domain.ScanRepository
	if ctx.Bool("cache") {
		if err := config.InitDatadir(); err != nil {
			return nil, fmt.Errorf("initializing datadir: %w", err)
		}
		dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
		dbManager, err := dbbadger.NewDbManager(dbDir, nil)
		if err != nil {
			return nil, fmt.Errorf("opening scan cache: %w", err)
		}
		repo = dbbadger.NewScanRepositoryImpl(dbManager.ScanStore)
		a.cleanup = func() {
			if err := dbManager.Close(); err != nil {
				log.WithError(err).Warn("closing scan cache")
			}
		}
	}

	return application.NewScannerService(
		a.deriver, a.provider, repo, scannerGapLimit(ctx), config.GetInt(config.ConcurrencyKey),
	), nil
}

// scannerGapLimit returns the gap limit the scan uses: the flag when set,
// the configured default otherwise.
func scannerGapLimit(ctx *cli.Context) int {
	if ctx.IsSet("gap-limit") {
		return ctx.Int("gap-limit")
	}
	return config.GetInt(config.GapLimitKey)
}

// parseAccounts interprets --account and --account-range ("first-last",
// inclusive). The range flag wins when both are given.
func parseAccounts(ctx *cli.Context) ([]uint32, error) {
	if r := ctx.String("account-range"); r != "" {
		parts := strings.SplitN(r, "-", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid account range %q, expected first-last", r)
		}
		first, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid account range %q: %v", r, err)
		}
		last, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid account range %q: %v", r, err)
		}
		if last < first {
			return nil, fmt.Errorf("invalid account range %q: last before first", r)
		}

		accounts := make([]uint32, 0, last-first+1)
		for account := first; account <= last; account++ {
			accounts = append(accounts, uint32(account))
		}
		return accounts, nil
	}

	return []uint32{uint32(ctx.Uint("account"))}, nil
}

// writeOutput renders any result object to the chosen destination: stdout
// when requested, a timestamped JSON file in the output directory otherwise.
func writeOutput(ctx *cli.Context, name string, result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	data = append(data, '\n')

	if ctx.Bool("stdout") {
		_, err := os.Stdout.Write(data)
		return err
	}

	dir := ctx.String("output")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf(
		"%s-%s.json", name, time.Now().UTC().Format("20060102-150405"),
	))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	log.Infof("report written to %s", path)
	return nil
}
