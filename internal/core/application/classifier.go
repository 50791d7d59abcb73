package application

import (
	"sort"

	"github.com/dandanlen/xpub-scan/internal/core/domain"
)

// Classify assigns the semantic category of a transaction given the set of
// addresses owned by the key. Pure, no I/O; rules are evaluated in order.
func Classify(tx domain.Transaction, book *domain.AddressBook) domain.OperationType {
	sender, receiver := tx.Sender(), tx.Receiver()
	senderOwned, receiverOwned := book.Owns(sender), book.Owns(receiver)

	switch {
	case senderOwned && receiverOwned && sender == receiver:
		return domain.OperationSentToSelf
	case senderOwned && receiverOwned:
		return domain.OperationSentToSibling
	case !senderOwned && book.IsChange(receiver):
		return domain.OperationReceivedToChange
	case senderOwned && !receiverOwned:
		return domain.OperationSent
	default:
		return domain.OperationReceived
	}
}

// BuildTransactions computes the net effect of every raw transaction on its
// owned address, picks the counterpart and labels the result. It is
// re-evaluated from scratch whenever the address book changes.
func BuildTransactions(
	entries []domain.ScanEntry, book *domain.AddressBook,
) []domain.Transaction {
	txs := make([]domain.Transaction, 0)

	for i := range entries {
		entry := &entries[i]
		if entry.Status != domain.StatusActive {
			continue
		}
		for _, raw := range entry.Raw {
			txs = append(txs, buildTransaction(raw, entry.Address, book))
		}
	}

	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		if txs[i].TxID != txs[j].TxID {
			return txs[i].TxID < txs[j].TxID
		}
		return txs[i].Address < txs[j].Address
	})

	return txs
}

func buildTransaction(
	raw domain.RawTx, owned domain.DerivedAddress, book *domain.AddressBook,
) domain.Transaction {
	mine := func(address string) bool {
		return address == owned.Address || (owned.CashAddress != "" && address == owned.CashAddress)
	}

	var net int64
	for _, out := range raw.Outputs {
		if mine(out.Address) {
			net += out.Value
		}
	}
	for _, in := range raw.Inputs {
		if mine(in.Address) {
			net -= in.Value
		}
	}

	// The counterpart is the first address on the other side of the
	// transfer; a transaction moving funds only between the address and
	// itself falls back to the address.
	counterpart := owned.Address
	if net < 0 {
		for _, out := range raw.Outputs {
			if !mine(out.Address) && out.Address != "" {
				counterpart = out.Address
				break
			}
		}
	} else {
		for _, in := range raw.Inputs {
			if !mine(in.Address) && in.Address != "" {
				counterpart = in.Address
				break
			}
		}
	}

	tx := domain.Transaction{
		TxID:        raw.TxID,
		BlockHeight: raw.BlockHeight,
		Date:        raw.Date,
		Address:     owned.Address,
		CashAddress: owned.CashAddress,
		Amount:      net,
		Counterpart: counterpart,
	}
	tx.Type = Classify(tx, book)
	return tx
}
