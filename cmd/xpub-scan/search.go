package main

import (
	"github.com/urfave/cli/v2"

	"github.com/dandanlen/xpub-scan/internal/core/application"
)

var search = cli.Command{
	Name:      "search",
	Usage:     "find derivation paths whose address matches a pattern with '?' wildcards",
	ArgsUsage: "<pattern>",
	Flags: []cli.Flag{
		keyFlag,
		currencyFlag,
		typesFlag,
		&cli.UintFlag{
			Name:  "min-account",
			Usage: "lowest account searched",
			Value: 0,
		},
		&cli.UintFlag{
			Name:  "max-account",
			Usage: "highest account searched",
			Value: 0,
		},
		&cli.UintFlag{
			Name:  "max-index",
			Usage: "highest address index searched on each chain",
			Value: 100,
		},
		outputFlag,
		stdoutFlag,
		quietFlag,
	},
	Action: searchAction,
}

// searchResult is the output object of a pattern search. Unlike a scan it
// carries no provider data; the search walks the derivation space offline.
type searchResult struct {
	Pattern string        `json:"pattern"`
	Matches []searchMatch `json:"matches"`
}

type searchMatch struct {
	Path       string  `json:"path"`
	Type       string  `json:"addressType"`
	Address    string  `json:"address"`
	Perfect    bool    `json:"perfect"`
	Confidence float64 `json:"confidence"`
}

func searchAction(ctx *cli.Context) error {
	a, err := newAnalysis(ctx)
	if err != nil {
		return err
	}

	pattern := ctx.Args().First()
	matcher := application.NewMatcherService(a.deriver)
	matches, err := matcher.Search(ctx.Context, a.key, pattern, application.SearchSpace{
		MinAccount: uint32(ctx.Uint("min-account")),
		MaxAccount: uint32(ctx.Uint("max-account")),
		MinIndex:   0,
		MaxIndex:   uint32(ctx.Uint("max-index")),
		Types:      a.types,
	})
	if err != nil {
		return err
	}

	result := searchResult{Pattern: pattern, Matches: make([]searchMatch, 0, len(matches))}
	for _, m := range matches {
		result.Matches = append(result.Matches, searchMatch{
			Path:       m.Path.String(),
			Type:       string(m.Type),
			Address:    m.Address,
			Perfect:    m.Perfect,
			Confidence: m.Confidence,
		})
	}

	return writeOutput(ctx, "search", result)
}
