package config_test

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuchi/tapyrus-signer/internal/config"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "signer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeYAML(t, "redis_addr: \"10.0.0.5:6380\"\nthreshold: 2\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:6380", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.Threshold)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load("/no/such/file.yaml")
	require.Error(t, err)
}

func TestBuildFederationParamsRejectsBadThreshold(t *testing.T) {
	cfg := &config.Config{Threshold: 0, Signers: []string{"deadbeef"}}
	_, err := cfg.BuildFederationParams("deadbeef")
	require.Error(t, err)
}

func TestBuildFederationParamsRejectsUnknownSelf(t *testing.T) {
	key, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	pub := curve.ScalarBaseMult(key).CompressedBytes()

	cfg := &config.Config{
		Threshold: 1,
		Signers:   []string{hex.EncodeToString(pub[:])},
	}
	_, err = cfg.BuildFederationParams("not-in-the-list")
	require.Error(t, err)
}

func TestBuildFederationParamsHappyPath(t *testing.T) {
	key, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	pub := curve.ScalarBaseMult(key).CompressedBytes()
	selfHex := hex.EncodeToString(pub[:])

	shared, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	sharedBytes := shared.Bytes()
	aggPub := curve.ScalarBaseMult(shared).CompressedBytes()

	cfg := &config.Config{
		Threshold:           1,
		Signers:             []string{selfHex},
		SelfPrivateKeyWIF:   "cQYYBMFS9dRR3Mt16gW4jixCqSiMhCwuDMHUBs6WeHMTxMnsq8Gh",
		PrivateSharedKeyHex: hex.EncodeToString(sharedBytes[:]),
		AggregatePublicKey:  hex.EncodeToString(aggPub[:]),
	}
	params, err := cfg.BuildFederationParams(selfHex)
	require.NoError(t, err)
	assert.Equal(t, 1, params.N())
}
