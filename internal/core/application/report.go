package application

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
	"github.com/dandanlen/xpub-scan/pkg/explorer"
)

// Version of the analysis format, disclosed in every report.
const Version = "1.0.0"

// Report is the output object handed to the reporter collaborator verbatim.
// All monetary fields are integer strings in the asset's base unit; display
// unit conversion happens beyond this boundary, never inside the core.
type Report struct {
	Meta         ReportMeta         `json:"meta"`
	Addresses    []ReportAddress    `json:"addresses"`
	Summary      []ReportSummary    `json:"summary"`
	Transactions []ReportTx         `json:"transactions"`
	Comparisons  []ReportComparison `json:"comparisons,omitempty"`
}

type ReportMeta struct {
	Version      string `json:"version"`
	Key          string `json:"key"`
	AnalysisDate string `json:"analysis_date"`
	Currency     string `json:"currency"`
	Provider     string `json:"provider"`
	ProviderURL  string `json:"provider_url"`
	GapLimit     int    `json:"gap_limit"`
	Unit         string `json:"unit"`
	// Warning discloses degraded completeness: provider truncation or
	// addresses left unknown by provider failures.
	Warning string `json:"warning,omitempty"`
}

type ReportDerivation struct {
	Account uint32 `json:"account"`
	Index   uint32 `json:"index"`
}

type ReportAddress struct {
	AddressType string           `json:"addressType"`
	Derivation  ReportDerivation `json:"derivation"`
	Address     string           `json:"address"`
	CashAddress string           `json:"cashAddress,omitempty"`
	Balance     string           `json:"balance"`
	Funded      string           `json:"funded"`
	Spent       string           `json:"spent"`
}

type ReportSummary struct {
	AddressType string `json:"addressType"`
	Balance     string `json:"balance"`
}

type ReportTx struct {
	Date        string `json:"date"`
	Block       int    `json:"block"`
	TxID        string `json:"txid"`
	Address     string `json:"address"`
	CashAddress string `json:"cashAddress,omitempty"`
	Amount      string `json:"amount"`
	Operation   string `json:"operationType"`
}

type ReportImported struct {
	Date      string `json:"date"`
	Address   string `json:"address,omitempty"`
	Amount    string `json:"amount,omitempty"`
	TxID      string `json:"txid,omitempty"`
	Operation string `json:"operationType,omitempty"`
}

type ReportComparison struct {
	Imported  *ReportImported `json:"imported,omitempty"`
	Actual    *ReportTx       `json:"actual,omitempty"`
	Status    string          `json:"status"`
	Ambiguous bool            `json:"ambiguous,omitempty"`
}

// ReportParams collects everything the report discloses.
type ReportParams struct {
	Key          *domain.ExtendedKey
	Currency     domain.Currency
	Provider     explorer.Service
	GapLimit     int
	Entries      []domain.ScanEntry
	Transactions []domain.Transaction
	Comparisons  []domain.ComparisonResult
}

// BuildReport assembles the output object from a finished analysis.
func BuildReport(params ReportParams) *Report {
	report := &Report{
		Meta: ReportMeta{
			Version:      Version,
			Key:          params.Key.String(),
			AnalysisDate: time.Now().UTC().Format(time.RFC3339),
			Currency:     params.Currency.String(),
			Provider:     params.Provider.Name(),
			ProviderURL:  params.Provider.URL(),
			GapLimit:     params.GapLimit,
			Unit:         params.Currency.Unit(),
		},
		Addresses:    make([]ReportAddress, 0),
		Summary:      make([]ReportSummary, 0),
		Transactions: make([]ReportTx, 0, len(params.Transactions)),
	}

	unknown, truncated := 0, false
	balances := make(map[domain.AddressType]int64)
	order := make([]domain.AddressType, 0)

	for i := range params.Entries {
		entry := &params.Entries[i]
		if entry.Truncated {
			truncated = true
		}
		switch entry.Status {
		case domain.StatusUnknown:
			unknown++
		case domain.StatusActive:
			report.Addresses = append(report.Addresses, ReportAddress{
				AddressType: string(entry.Address.Type),
				Derivation: ReportDerivation{
					Account: entry.Address.Path.Account,
					Index:   entry.Address.Path.Index,
				},
				Address:     entry.Address.Address,
				CashAddress: entry.Address.CashAddress,
				Balance:     strconv.FormatInt(entry.Stats.Balance(), 10),
				Funded:      strconv.FormatInt(entry.Stats.Funded, 10),
				Spent:       strconv.FormatInt(entry.Stats.Spent, 10),
			})
			if _, seen := balances[entry.Address.Type]; !seen {
				order = append(order, entry.Address.Type)
			}
			balances[entry.Address.Type] += entry.Stats.Balance()
		}
	}

	for _, addrType := range order {
		report.Summary = append(report.Summary, ReportSummary{
			AddressType: string(addrType),
			Balance:     strconv.FormatInt(balances[addrType], 10),
		})
	}

	for i := range params.Transactions {
		report.Transactions = append(report.Transactions, reportTx(&params.Transactions[i]))
	}

	for i := range params.Comparisons {
		cmp := &params.Comparisons[i]
		rc := ReportComparison{Status: string(cmp.Status), Ambiguous: cmp.Ambiguous}
		if cmp.Imported != nil {
			rc.Imported = reportImported(cmp.Imported)
		}
		if cmp.Actual != nil {
			actual := reportTx(cmp.Actual)
			rc.Actual = &actual
		}
		report.Comparisons = append(report.Comparisons, rc)
	}

	report.Meta.Warning = buildWarning(params.Provider, truncated, unknown)

	return report
}

func reportTx(tx *domain.Transaction) ReportTx {
	return ReportTx{
		Date:        tx.Date.UTC().Format(time.RFC3339),
		Block:       tx.BlockHeight,
		TxID:        tx.TxID,
		Address:     tx.Address,
		CashAddress: tx.CashAddress,
		Amount:      strconv.FormatInt(tx.Amount, 10),
		Operation:   string(tx.Type),
	}
}

func reportImported(op *domain.ImportedOperation) *ReportImported {
	imported := &ReportImported{
		Date:      op.Date.UTC().Format(time.RFC3339),
		Address:   op.Address,
		TxID:      op.TxID,
		Operation: string(op.Type),
	}
	if op.Amount != nil {
		imported.Amount = strconv.FormatInt(*op.Amount, 10)
	}
	return imported
}

func buildWarning(provider explorer.Service, truncated bool, unknown int) string {
	warning := ""
	if truncated {
		warning = fmt.Sprintf(
			"provider %q caps transaction histories; some lists are incomplete",
			provider.Name(),
		)
	}
	if unknown > 0 {
		if warning != "" {
			warning += "; "
		}
		warning += fmt.Sprintf(
			"%d address(es) could not be checked and are reported as unknown", unknown,
		)
	}
	return warning
}
