// Package config loads the federation parameters and connection settings
// the signer process needs at startup (spec.md §1 places config parsing
// itself out of scope for the core, but something has to produce the
// federation.Params and conn.Manager the core consumes). It mirrors the
// teacher's protocols/lss/config.Config shape: a typed struct built once
// from a YAML file plus environment overrides, rather than callers
// threading a raw *viper.Viper through the program.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/azuchi/tapyrus-signer/internal/errs"
	"github.com/azuchi/tapyrus-signer/internal/federation"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wif"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// envPrefix namespaces environment overrides, e.g. TAPYRUS_SIGNER_REDIS_ADDR.
const envPrefix = "TAPYRUS_SIGNER"

// Config is the typed result of loading a signer process's YAML config
// plus environment overrides. Federation/VSS fields are hex/WIF strings on
// this struct — BuildFederationParams decodes them into the curve types federation.Params
// actually needs, so a malformed config fails fast at startup rather than
// deep inside a round.
type Config struct {
	Signers             []string      `mapstructure:"signers"`
	Threshold           int           `mapstructure:"threshold"`
	SelfPrivateKeyWIF   string        `mapstructure:"self_private_key_wif"`
	PrivateSharedKeyHex string        `mapstructure:"private_shared_key"`
	AggregatePublicKey  string        `mapstructure:"aggregate_public_key"`
	RedisAddr           string        `mapstructure:"redis_addr"`
	RoundTimeout        time.Duration `mapstructure:"round_timeout"`
	LogLevel            string        `mapstructure:"log_level"`
}

// Load reads path (a YAML file) into a Config, applying TAPYRUS_SIGNER_*
// environment overrides over it (e.g. TAPYRUS_SIGNER_REDIS_ADDR overrides
// redis_addr). path may be empty, in which case only the environment and
// the defaults below apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("round_timeout", 30*time.Second)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.InvalidArgsf("config", "reading %s: %v", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.InvalidArgsf("config", "decoding: %v", err)
	}
	return &cfg, nil
}

// BuildFederationParams decodes the hex/WIF fields into federation.Params,
// the immutable runtime object the round driver and processors consume.
func (c *Config) BuildFederationParams(selfPubkeyHex string) (*federation.Params, error) {
	if c.Threshold < 1 {
		return nil, errs.InvalidArgsf("threshold", "must be >= 1, got %d", c.Threshold)
	}
	if len(c.Signers) == 0 {
		return nil, errs.InvalidArgsf("signers", "federation must have at least one signer")
	}

	signers := make([]wire.SignerID, 0, len(c.Signers))
	var selfID wire.SignerID
	var found bool
	for _, hexPub := range c.Signers {
		id, err := decodeSignerIDHex(hexPub)
		if err != nil {
			return nil, errs.InvalidArgsf("signers", "%q: %v", hexPub, err)
		}
		signers = append(signers, id)
		if hexPub == selfPubkeyHex {
			selfID = id
			found = true
		}
	}
	if !found {
		return nil, errs.InvalidArgsf("signers", "self public key %q is not in the federation list", selfPubkeyHex)
	}

	selfKey, _, err := wif.Decode(c.SelfPrivateKeyWIF)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidKey, "self_private_key_wif")
	}

	sharedKeyBytes, err := decodeHex32(c.PrivateSharedKeyHex)
	if err != nil {
		return nil, errs.InvalidArgsf("private_shared_key", "%v", err)
	}
	sharedKey := curve.ScalarFromBytes(sharedKeyBytes[:])

	aggPubBytes, err := decodeHex33(c.AggregatePublicKey)
	if err != nil {
		return nil, errs.InvalidArgsf("aggregate_public_key", "%v", err)
	}
	aggPub, err := curve.PointFromCompressed(aggPubBytes[:])
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidKey, "aggregate_public_key")
	}

	return federation.New(signers, c.Threshold, selfID, selfKey, sharedKey, aggPub)
}

func decodeSignerIDHex(s string) (wire.SignerID, error) {
	b, err := decodeHex33(s)
	if err != nil {
		return wire.SignerID{}, err
	}
	return wire.NewSignerID(b[:])
}

func decodeHex33(s string) ([33]byte, error) {
	var out [33]byte
	b, err := hexDecode(s, 33)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hexDecode(s, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func hexDecode(s string, wantLen int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != wantLen {
		return nil, fmt.Errorf("expected %d bytes, got %d", wantLen, len(b))
	}
	return b, nil
}
