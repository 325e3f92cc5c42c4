package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"arbScope/internal/bundle"
	rediscache "arbScope/internal/cache/redis"
	"arbScope/internal/etherscan"
	"arbScope/internal/indexer"
)

const (
	SourceEtherscan = "etherscan"
	SourceRPC       = "rpc"

	StorePostgres = "postgres"
	StoreFile     = "file"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Source          string
	EtherscanURL    string
	EtherscanAPIKey string
	RPCURL          string
	Contract        string
	DeploymentBlock uint64
	FromBlock       uint64
	ToBlock         uint64
	Window          uint64
	Store           string
	PGDSN           string
	StateFile       string
	AnomalyLog      string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTTL        time.Duration
	KafkaBrokers    []string
	KafkaTopic      string
	MaxRetries      int
	RetryDelay      time.Duration
	Concurrency     int
	LogLevel        string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ARBSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("etherscan-api-key", "ARBSCOPE_ETHERSCAN_API_KEY", "ETHERSCAN_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	v.SetDefault("source", SourceEtherscan)
	v.SetDefault("etherscan-url", etherscan.DefaultBaseURL)
	v.SetDefault("contract", indexer.DefaultContract.Hex())
	v.SetDefault("deployment-block", indexer.DefaultDeploymentBlock)
	v.SetDefault("store", StoreFile)
	v.SetDefault("state-file", "./data/bundles.json")
	v.SetDefault("anomaly-log", "./data/anomalies.jsonl")
	v.SetDefault("redis-ttl", rediscache.DefaultTransferTTL)
	v.SetDefault("kafka-topic", "arbscope.bundles")
	v.SetDefault("max-retries", bundle.DefaultMaxRetries)
	v.SetDefault("retry-delay", bundle.DefaultRetryDelay)
	v.SetDefault("concurrency", bundle.DefaultConcurrency)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Source:          strings.ToLower(v.GetString("source")),
		EtherscanURL:    v.GetString("etherscan-url"),
		EtherscanAPIKey: v.GetString("etherscan-api-key"),
		RPCURL:          v.GetString("rpc"),
		Contract:        v.GetString("contract"),
		DeploymentBlock: v.GetUint64("deployment-block"),
		FromBlock:       v.GetUint64("from"),
		ToBlock:         v.GetUint64("to"),
		Window:          v.GetUint64("window"),
		Store:           strings.ToLower(v.GetString("store")),
		PGDSN:           v.GetString("pg-dsn"),
		StateFile:       v.GetString("state-file"),
		AnomalyLog:      v.GetString("anomaly-log"),
		RedisAddr:       v.GetString("redis-addr"),
		RedisPassword:   v.GetString("redis-password"),
		RedisDB:         v.GetInt("redis-db"),
		RedisTTL:        v.GetDuration("redis-ttl"),
		KafkaBrokers:    getStringSlice(v, "kafka-brokers"),
		KafkaTopic:      v.GetString("kafka-topic"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryDelay:      v.GetDuration("retry-delay"),
		Concurrency:     v.GetInt("concurrency"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks that the selected source and store are fully configured.
func (c Config) Validate() error {
	switch c.Source {
	case SourceEtherscan:
		if c.EtherscanURL == "" {
			return fmt.Errorf("etherscan url is required")
		}
	case SourceRPC:
		if c.RPCURL == "" {
			return fmt.Errorf("rpc url is required for the rpc source")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	switch c.Store {
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres store")
		}
	case StoreFile:
		if c.StateFile == "" {
			return fmt.Errorf("state file is required for the file store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	if c.ToBlock != 0 && c.ToBlock < c.DeploymentBlock {
		return fmt.Errorf("to block %d precedes deployment block %d", c.ToBlock, c.DeploymentBlock)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
