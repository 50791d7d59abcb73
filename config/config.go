package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/dandanlen/xpub-scan/pkg/explorer"
	"github.com/dandanlen/xpub-scan/pkg/explorer/esplora"
)

const (
	// ExplorerEndpointKey is the base URL of the explorer REST API
	ExplorerEndpointKey = "EXPLORER_ENDPOINT"
	// ExplorerAPIKeyKey is the credential sent to a custom explorer on every request
	ExplorerAPIKeyKey = "EXPLORER_API_KEY"
	// GapLimitKey is the number of consecutive unused addresses that ends a chain scan
	GapLimitKey = "GAP_LIMIT"
	// ConcurrencyKey is the number of concurrent address queries per chain scan
	ConcurrencyKey = "CONCURRENCY"
	// RateLimitKey is the number of requests per second sent to the shared explorer
	RateLimitKey = "RATE_LIMIT"
	// RetryAttemptsKey is the number of attempts per explorer request before an address is marked unknown
	RetryAttemptsKey = "RETRY_ATTEMPTS"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DatadirKey is the local data directory where the scan cache is stored
	DatadirKey = "DATA_DIR_PATH"

	// DbLocation is the name of the scan cache directory inside the datadir
	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("xpub-scan", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("XPUB_SCAN")
	vip.AutomaticEnv()

	vip.SetDefault(ExplorerEndpointKey, "https://blockstream.info/api")
	vip.SetDefault(GapLimitKey, 20)
	vip.SetDefault(ConcurrencyKey, 4)
	vip.SetDefault(RateLimitKey, 5)
	vip.SetDefault(RetryAttemptsKey, 3)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the given key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

// GetDatadir ...
func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetExplorer returns the explorer service the environment selects: the
// custom mode when an API key is configured, the shared capped mode
// otherwise.
func GetExplorer() (explorer.Service, error) {
	endpoint := GetString(ExplorerEndpointKey)
	if apiKey := GetString(ExplorerAPIKeyKey); apiKey != "" {
		return esplora.NewCustomService(endpoint, apiKey, GetInt(RetryAttemptsKey))
	}
	return esplora.NewDefaultService(endpoint, GetInt(RateLimitKey), GetInt(RetryAttemptsKey))
}

// InitDatadir creates the data directory tree if needed. It is called only
// by commands that use the scan cache.
func InitDatadir() error {
	return makeDirectoryIfNotExists(fmt.Sprintf("%s/%s", GetDatadir(), DbLocation))
}

func validate() error {
	endpoint := GetString(ExplorerEndpointKey)
	if _, err := url.Parse(endpoint); err != nil {
		return fmt.Errorf("explorer endpoint is not a valid url: %s", err)
	}

	if GetInt(GapLimitKey) < 0 {
		return fmt.Errorf("gap limit must not be a negative number")
	}
	if GetInt(ConcurrencyKey) < 1 {
		return fmt.Errorf("concurrency must be a positive number")
	}
	if GetInt(RateLimitKey) < 1 {
		return fmt.Errorf("rate limit must be a positive number")
	}
	if GetInt(RetryAttemptsKey) < 1 {
		return fmt.Errorf("retry attempts must be a positive number")
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
