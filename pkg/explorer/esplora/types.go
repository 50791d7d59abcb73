package esplora

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dandanlen/xpub-scan/pkg/explorer"
)

/**** ADDRESS ****/

type addressStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
	TxCount      int   `json:"tx_count"`
}

type address struct {
	Address      string       `json:"address"`
	ChainStats   addressStats `json:"chain_stats"`
	MempoolStats addressStats `json:"mempool_stats"`
}

func newAddressFromJSON(addrJSON string) (*address, error) {
	a := &address{}
	if err := json.Unmarshal([]byte(addrJSON), a); err != nil {
		return nil, fmt.Errorf("invalid address JSON")
	}
	return a, nil
}

func (a *address) funded() int64 {
	return a.ChainStats.FundedTxoSum + a.MempoolStats.FundedTxoSum
}

func (a *address) spent() int64 {
	return a.ChainStats.SpentTxoSum + a.MempoolStats.SpentTxoSum
}

func (a *address) txCount() int {
	return a.ChainStats.TxCount + a.MempoolStats.TxCount
}

/**** TRANSACTION ****/

type txStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int   `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

type txPrevout struct {
	ScriptpubkeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

type txVin struct {
	Prevout txPrevout `json:"prevout"`
}

type tx struct {
	TxID   string      `json:"txid"`
	Status txStatus    `json:"status"`
	Vin    []txVin     `json:"vin"`
	Vout   []txPrevout `json:"vout"`
}

func newTxsFromJSON(txsJSON string) ([]tx, error) {
	txs := []tx{}
	if err := json.Unmarshal([]byte(txsJSON), &txs); err != nil {
		return nil, fmt.Errorf("invalid tx list JSON")
	}
	return txs, nil
}

func (t tx) toTx() explorer.Tx {
	inputs := make([]explorer.TxOutput, 0, len(t.Vin))
	for _, in := range t.Vin {
		inputs = append(inputs, explorer.TxOutput{
			Address: in.Prevout.ScriptpubkeyAddress,
			Value:   in.Prevout.Value,
		})
	}
	outputs := make([]explorer.TxOutput, 0, len(t.Vout))
	for _, out := range t.Vout {
		outputs = append(outputs, explorer.TxOutput{
			Address: out.ScriptpubkeyAddress,
			Value:   out.Value,
		})
	}

	return explorer.Tx{
		TxID:        t.TxID,
		BlockHeight: t.Status.BlockHeight,
		BlockTime:   time.Unix(t.Status.BlockTime, 0).UTC(),
		Confirmed:   t.Status.Confirmed,
		Inputs:      inputs,
		Outputs:     outputs,
	}
}
