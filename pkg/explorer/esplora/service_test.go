package esplora

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"

	"github.com/dandanlen/xpub-scan/pkg/circuitbreaker"
	"github.com/dandanlen/xpub-scan/pkg/explorer"
)

const testAddr = "bc1qtestaddress000000000000000000000000000"

func newTestService(t *testing.T, handler http.Handler, capped bool) (*esplora, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &esplora{
		name:          "default",
		apiURL:        server.URL,
		capped:        capped,
		limiter:       ratelimit.NewUnlimited(),
		cb:            circuitbreaker.NewCircuitBreaker("test"),
		retryAttempts: 3,
		retryDelay:    time.Millisecond,
	}, server
}

func statsBody(funded, spent int64, txCount int) string {
	return fmt.Sprintf(
		`{"address":"%s","chain_stats":{"funded_txo_sum":%d,"spent_txo_sum":%d,"tx_count":%d},"mempool_stats":{"funded_txo_sum":0,"spent_txo_sum":0,"tx_count":0}}`,
		testAddr, funded, spent, txCount,
	)
}

func txsBody(n int, confirmed bool) string {
	txs := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, map[string]interface{}{
			"txid":   fmt.Sprintf("tx%04d", i),
			"status": map[string]interface{}{"confirmed": confirmed, "block_height": 700000 + i, "block_time": 1600000000 + i},
			"vin":    []map[string]interface{}{{"prevout": map[string]interface{}{"scriptpubkey_address": "1Sender", "value": 5000}}},
			"vout":   []map[string]interface{}{{"scriptpubkey_address": testAddr, "value": 5000}},
		})
	}
	buf, _ := json.Marshal(txs)
	return string(buf)
}

func TestGetAddressActivity(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/txs"):
			fmt.Fprint(w, txsBody(2, true))
		default:
			fmt.Fprint(w, statsBody(10000, 4000, 2))
		}
	})
	svc, _ := newTestService(t, handler, true)

	activity, err := svc.GetAddressActivity(context.Background(), testAddr)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), activity.Funded)
	assert.Equal(t, int64(4000), activity.Spent)
	assert.Equal(t, int64(6000), activity.Balance())
	assert.Equal(t, 2, activity.TxCount)
	assert.Len(t, activity.Txs, 2)
	assert.False(t, activity.Truncated)
	assert.Equal(t, "tx0000", activity.Txs[0].TxID)
	assert.Equal(t, "1Sender", activity.Txs[0].Inputs[0].Address)
}

func TestGetAddressActivityNoHistoryFetchForInactive(t *testing.T) {
	var txsCalls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/txs") {
			txsCalls++
		}
		fmt.Fprint(w, statsBody(0, 0, 0))
	})
	svc, _ := newTestService(t, handler, true)

	activity, err := svc.GetAddressActivity(context.Background(), testAddr)
	require.NoError(t, err)

	assert.Zero(t, activity.TxCount)
	assert.Empty(t, activity.Txs)
	assert.Zero(t, txsCalls)
}

func TestGetAddressActivityReportsTruncation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/txs"):
			fmt.Fprint(w, txsBody(50, true))
		default:
			fmt.Fprint(w, statsBody(1000000, 0, 120))
		}
	})
	svc, _ := newTestService(t, handler, true)

	activity, err := svc.GetAddressActivity(context.Background(), testAddr)
	require.NoError(t, err)

	assert.True(t, activity.Truncated)
	assert.Len(t, activity.Txs, 50)
	assert.Equal(t, 120, activity.TxCount)
}

func TestGetAddressActivityPagesWhenUncapped(t *testing.T) {
	pages := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/txs/chain/"):
			pages++
			// Second page short, ends the paging loop.
			fmt.Fprint(w, txsBody(10, true))
		case strings.HasSuffix(r.URL.Path, "/txs"):
			fmt.Fprint(w, txsBody(25, true))
		default:
			fmt.Fprint(w, statsBody(1000000, 0, 35))
		}
	})
	svc, _ := newTestService(t, handler, false)

	activity, err := svc.GetAddressActivity(context.Background(), testAddr)
	require.NoError(t, err)

	assert.Equal(t, 1, pages)
	assert.Len(t, activity.Txs, 35)
	assert.False(t, activity.Truncated)
}

func TestGetAddressActivityRetriesThenFails(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	svc, _ := newTestService(t, handler, true)

	_, err := svc.GetAddressActivity(context.Background(), testAddr)
	require.Error(t, err)

	assert.True(t, errors.Is(err, explorer.ErrProviderUnavailable))
	assert.Equal(t, 3, calls)
}

func TestGetAddressActivityRecoversOnTransientFailure(t *testing.T) {
	var statsCalls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/txs") {
			fmt.Fprint(w, txsBody(1, true))
			return
		}
		statsCalls++
		if statsCalls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, statsBody(5000, 0, 1))
	})
	svc, _ := newTestService(t, handler, true)

	activity, err := svc.GetAddressActivity(context.Background(), testAddr)
	require.NoError(t, err)

	assert.Equal(t, 2, statsCalls)
	assert.Equal(t, int64(5000), activity.Balance())
}

func TestCustomServiceSendsCredential(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if strings.HasSuffix(r.URL.Path, "/blocks/tip/height") {
			fmt.Fprint(w, "700000")
			return
		}
		fmt.Fprint(w, statsBody(0, 0, 0))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	svc, err := NewCustomService(server.URL, "s3cret", 1)
	require.NoError(t, err)

	_, err = svc.GetAddressActivity(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.False(t, svc.Capped())
	assert.Equal(t, "custom", svc.Name())
}

func TestNewServiceConfiguresRetryAttempts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "700000")
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	svc, err := NewDefaultService(server.URL, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, svc.(*esplora).retryAttempts)

	// Values below 1 fall back to the default.
	svc, err = NewCustomService(server.URL, "s3cret", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultRetryAttempts, svc.(*esplora).retryAttempts)
}
