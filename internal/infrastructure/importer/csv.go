package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

// ParseCSV parses a comma separated operation file. The first row is a
// header; columns are matched by name (date, amount, txid, address, label)
// in any order. Only the date column is required.
func ParseCSV(data []byte) ([]domain.ImportedOperation, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	// Rows may omit trailing optional columns.
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty import file")
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["date"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "date")
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	operations := make([]domain.ImportedOperation, 0, len(rows)-1)
	for n, row := range rows[1:] {
		date, err := parseDate(field(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}

		op := domain.ImportedOperation{
			Date:    date,
			TxID:    field(row, "txid"),
			Address: field(row, "address"),
			Type:    domain.OperationType(field(row, "label")),
		}
		if raw := field(row, "amount"); raw != "" {
			amount, err := parseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n+2, err)
			}
			op.Amount = &amount
		}
		operations = append(operations, op)
	}

	return operations, nil
}
