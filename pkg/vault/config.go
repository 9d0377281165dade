package vault

import (
	"time"

	"github.com/code-payments/code-vault/pkg/config"
	"github.com/code-payments/code-vault/pkg/config/env"
	"github.com/code-payments/code-vault/pkg/config/memory"
	"github.com/code-payments/code-vault/pkg/config/wrapper"
)

const (
	envConfigPrefix = "VAULT_CLIENT_"

	MaxRetriesConfigEnvName = envConfigPrefix + "MAX_RETRIES"
	defaultMaxRetries       = 5

	MinRetryDelayConfigEnvName = envConfigPrefix + "MIN_RETRY_DELAY"
	defaultMinRetryDelay       = 100 * time.Millisecond

	MaxRetryDelayConfigEnvName = envConfigPrefix + "MAX_RETRY_DELAY"
	defaultMaxRetryDelay       = 2 * time.Second
)

type conf struct {
	maxRetries    config.Uint64
	minRetryDelay config.Duration
	maxRetryDelay config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			maxRetries:    env.NewUint64Config(MaxRetriesConfigEnvName, defaultMaxRetries),
			minRetryDelay: env.NewDurationConfig(MinRetryDelayConfigEnvName, defaultMinRetryDelay),
			maxRetryDelay: env.NewDurationConfig(MaxRetryDelayConfigEnvName, defaultMaxRetryDelay),
		}
	}
}

type testOverrides struct {
	maxRetries    uint64
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			maxRetries:    wrapper.NewUint64Config(memory.NewConfig(overrides.maxRetries), defaultMaxRetries),
			minRetryDelay: wrapper.NewDurationConfig(memory.NewConfig(overrides.minRetryDelay), defaultMinRetryDelay),
			maxRetryDelay: wrapper.NewDurationConfig(memory.NewConfig(overrides.maxRetryDelay), defaultMaxRetryDelay),
		}
	}
}
