package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbScope/internal/etherscan"
	"arbScope/internal/indexer"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, SourceEtherscan, cfg.Source)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, indexer.DefaultDeploymentBlock, cfg.DeploymentBlock)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, indexer.DefaultContract.Hex(), cfg.Contract)
	assert.Equal(t, etherscan.DefaultBaseURL, cfg.EtherscanURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfgPath := filepath.Join(dir, "arbscope.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store: postgres\npg-dsn: postgres://file\nmax-retries: 3\nkafka-brokers: a:9092, b:9092\n"), 0o644))

	t.Setenv("ARBSCOPE_MAX_RETRIES", "7")
	t.Setenv("ETHERSCAN_API_KEY", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("pg-dsn", "", "")
	require.NoError(t, flags.Parse([]string{"--pg-dsn=postgres://flag"}))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://flag", cfg.PGDSN, "flags beat the config file")
	assert.Equal(t, 7, cfg.MaxRetries, "env beats the config file")
	assert.Equal(t, "from-env", cfg.EtherscanAPIKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	base := Config{
		Source:          SourceEtherscan,
		EtherscanURL:    etherscan.DefaultBaseURL,
		Store:           StoreFile,
		StateFile:       "bundles.json",
		DeploymentBlock: 100,
	}
	require.NoError(t, base.Validate())

	rpc := base
	rpc.Source = SourceRPC
	assert.Error(t, rpc.Validate())

	pg := base
	pg.Store = StorePostgres
	assert.Error(t, pg.Validate())

	unknown := base
	unknown.Store = "mongo"
	assert.Error(t, unknown.Validate())

	early := base
	early.ToBlock = 50
	assert.Error(t, early.Validate())

	kafka := base
	kafka.KafkaBrokers = []string{"a:9092"}
	assert.Error(t, kafka.Validate())
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
