package bank

import (
	"github.com/code-payments/code-vault/pkg/config"
	"github.com/code-payments/code-vault/pkg/config/env"
	"github.com/code-payments/code-vault/pkg/config/memory"
	"github.com/code-payments/code-vault/pkg/config/wrapper"
)

const (
	envConfigPrefix = "BANK_"

	LamportsPerSignatureConfigEnvName = envConfigPrefix + "LAMPORTS_PER_SIGNATURE"
	defaultLamportsPerSignature       = 5000

	MaxRecentBlockhashesConfigEnvName = envConfigPrefix + "MAX_RECENT_BLOCKHASHES"
	defaultMaxRecentBlockhashes       = 150

	LockStripesConfigEnvName = envConfigPrefix + "LOCK_STRIPES"
	defaultLockStripes       = 1024

	WaitForAccountLocksConfigEnvName = envConfigPrefix + "WAIT_FOR_ACCOUNT_LOCKS"
	defaultWaitForAccountLocks       = true

	RentLamportsPerByteYearConfigEnvName = envConfigPrefix + "RENT_LAMPORTS_PER_BYTE_YEAR"
	defaultRentLamportsPerByteYear       = 3480

	RentExemptionThresholdConfigEnvName = envConfigPrefix + "RENT_EXEMPTION_THRESHOLD"
	defaultRentExemptionThreshold       = 2

	MaxInvokeDepthConfigEnvName = envConfigPrefix + "MAX_INVOKE_DEPTH"
	defaultMaxInvokeDepth       = 4

	MaxAirdropLamportsConfigEnvName = envConfigPrefix + "MAX_AIRDROP_LAMPORTS"
	defaultMaxAirdropLamports       = 0 // unlimited
)

type conf struct {
	lamportsPerSignature    config.Uint64
	maxRecentBlockhashes    config.Uint64
	lockStripes             config.Uint64
	waitForAccountLocks     config.Bool
	rentLamportsPerByteYear config.Uint64
	rentExemptionThreshold  config.Uint64
	maxInvokeDepth          config.Uint64
	maxAirdropLamports      config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			lamportsPerSignature:    env.NewUint64Config(LamportsPerSignatureConfigEnvName, defaultLamportsPerSignature),
			maxRecentBlockhashes:    env.NewUint64Config(MaxRecentBlockhashesConfigEnvName, defaultMaxRecentBlockhashes),
			lockStripes:             env.NewUint64Config(LockStripesConfigEnvName, defaultLockStripes),
			waitForAccountLocks:     env.NewBoolConfig(WaitForAccountLocksConfigEnvName, defaultWaitForAccountLocks),
			rentLamportsPerByteYear: env.NewUint64Config(RentLamportsPerByteYearConfigEnvName, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  env.NewUint64Config(RentExemptionThresholdConfigEnvName, defaultRentExemptionThreshold),
			maxInvokeDepth:          env.NewUint64Config(MaxInvokeDepthConfigEnvName, defaultMaxInvokeDepth),
			maxAirdropLamports:      env.NewUint64Config(MaxAirdropLamportsConfigEnvName, defaultMaxAirdropLamports),
		}
	}
}

// TestOverrides are the manual values used by WithTestOverrides. Unset
// fields fall back to their defaults.
type TestOverrides struct {
	LamportsPerSignature *uint64
	MaxRecentBlockhashes *uint64
	LockStripes          *uint64
	WaitForAccountLocks  *bool
	MaxInvokeDepth       *uint64
	MaxAirdropLamports   *uint64
}

// WithTestOverrides returns in memory configuration for tests
func WithTestOverrides(overrides *TestOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			lamportsPerSignature:    uint64Override(overrides.LamportsPerSignature, defaultLamportsPerSignature),
			maxRecentBlockhashes:    uint64Override(overrides.MaxRecentBlockhashes, defaultMaxRecentBlockhashes),
			lockStripes:             uint64Override(overrides.LockStripes, defaultLockStripes),
			waitForAccountLocks:     boolOverride(overrides.WaitForAccountLocks, defaultWaitForAccountLocks),
			rentLamportsPerByteYear: uint64Override(nil, defaultRentLamportsPerByteYear),
			rentExemptionThreshold:  uint64Override(nil, defaultRentExemptionThreshold),
			maxInvokeDepth:          uint64Override(overrides.MaxInvokeDepth, defaultMaxInvokeDepth),
			maxAirdropLamports:      uint64Override(overrides.MaxAirdropLamports, defaultMaxAirdropLamports),
		}
	}
}

func uint64Override(value *uint64, defaultValue uint64) config.Uint64 {
	if value == nil {
		return wrapper.NewUint64Config(config.NoopConfig, defaultValue)
	}
	return wrapper.NewUint64Config(memory.NewConfig(*value), defaultValue)
}

func boolOverride(value *bool, defaultValue bool) config.Bool {
	if value == nil {
		return wrapper.NewBoolConfig(config.NoopConfig, defaultValue)
	}
	return wrapper.NewBoolConfig(memory.NewConfig(*value), defaultValue)
}
