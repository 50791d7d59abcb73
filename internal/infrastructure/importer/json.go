package importer

import (
	"encoding/json"
	"fmt"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

// jsonAmount accepts both JSON numbers and quoted decimal strings.
type jsonAmount string

func (a *jsonAmount) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*a = jsonAmount(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	*a = jsonAmount(asNumber)
	return nil
}

type jsonOperation struct {
	Date    string     `json:"date"`
	Amount  jsonAmount `json:"amount"`
	TxID    string     `json:"txid"`
	Address string     `json:"address"`
	Type    string     `json:"operationType"`
}

// ParseJSON parses a JSON array of operation records. Amounts may be JSON
// numbers or strings; both go through the same decimal conversion.
func ParseJSON(data []byte) ([]domain.ImportedOperation, error) {
	var records []jsonOperation
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}

	operations := make([]domain.ImportedOperation, 0, len(records))
	for n, record := range records {
		date, err := parseDate(record.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}

		op := domain.ImportedOperation{
			Date:    date,
			TxID:    record.TxID,
			Address: record.Address,
			Type:    domain.OperationType(record.Type),
		}
		if record.Amount != "" {
			amount, err := parseAmount(string(record.Amount))
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", n, err)
			}
			op.Amount = &amount
		}
		operations = append(operations, op)
	}

	return operations, nil
}
