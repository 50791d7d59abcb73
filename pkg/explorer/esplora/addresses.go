package esplora

import (
	"context"
	"fmt"

	"github.com/dandanlen/xpub-scan/pkg/explorer"
)

func (e *esplora) GetAddressActivity(
	ctx context.Context, addr string,
) (*explorer.AddressActivity, error) {
	url := fmt.Sprintf("%s/address/%s", e.apiURL, addr)
	resp, err := e.getWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching stats for %s: %w", addr, err)
	}

	stats, err := newAddressFromJSON(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", explorer.ErrProviderUnavailable, err)
	}

	activity := &explorer.AddressActivity{
		Address: addr,
		Funded:  stats.funded(),
		Spent:   stats.spent(),
		TxCount: stats.txCount(),
	}
	if activity.TxCount == 0 {
		return activity, nil
	}

	txs, err := e.getTransactions(ctx, addr, activity.TxCount)
	if err != nil {
		return nil, fmt.Errorf("fetching txs for %s: %w", addr, err)
	}

	activity.Txs = txs
	activity.Truncated = len(txs) < activity.TxCount
	return activity, nil
}

// getTransactions fetches the transaction list of an address. The capped
// mode returns the single recent-transactions page the shared provider
// serves; the custom mode pages through the whole confirmed history.
func (e *esplora) getTransactions(
	ctx context.Context, addr string, txCount int,
) ([]explorer.Tx, error) {
	url := fmt.Sprintf("%s/address/%s/txs", e.apiURL, addr)
	resp, err := e.getWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	page, err := newTxsFromJSON(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", explorer.ErrProviderUnavailable, err)
	}

	txs := make([]explorer.Tx, 0, txCount)
	for _, t := range page {
		txs = append(txs, t.toTx())
	}
	if e.capped {
		if len(txs) > maxTxsPerAddress {
			txs = txs[:maxTxsPerAddress]
		}
		return txs, nil
	}

	// Page through the remaining confirmed history.
	lastSeen := lastConfirmedTxid(page)
	for lastSeen != "" && len(txs) < txCount {
		url := fmt.Sprintf("%s/address/%s/txs/chain/%s", e.apiURL, addr, lastSeen)
		resp, err := e.getWithRetry(ctx, url)
		if err != nil {
			return nil, err
		}
		page, err = newTxsFromJSON(resp)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", explorer.ErrProviderUnavailable, err)
		}
		if len(page) == 0 {
			break
		}
		for _, t := range page {
			txs = append(txs, t.toTx())
		}
		if len(page) < chainPageSize {
			break
		}
		lastSeen = lastConfirmedTxid(page)
	}

	return txs, nil
}

func lastConfirmedTxid(page []tx) string {
	for i := len(page) - 1; i >= 0; i-- {
		if page[i].Status.Confirmed {
			return page[i].TxID
		}
	}
	return ""
}
