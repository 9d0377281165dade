package env

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/code-payments/code-vault/pkg/config"
	"github.com/code-payments/code-vault/pkg/config/wrapper"
)

var (
	viperOnce sync.Once
	v         *viper.Viper
)

func getViper() *viper.Viper {
	viperOnce.Do(func() {
		v = viper.New()
		v.AutomaticEnv()
	})
	return v
}

type conf struct {
	key string
}

// NewConfig returns a config backed by the environment variable with the
// upper cased key. The variable is read on every Get, so changes are observed
// without a restart.
func NewConfig(key string) config.Config {
	key = strings.ToUpper(key)
	_ = getViper().BindEnv(key)

	return &conf{
		key: key,
	}
}

// Get implements Config.Get
func (c *conf) Get(_ context.Context) (interface{}, error) {
	val := getViper().GetString(c.key)
	if len(val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// NewInt64Config creates a env-based int64 config
func NewInt64Config(key string, defaultValue int64) config.Int64 {
	return wrapper.NewInt64Config(NewConfig(key), defaultValue)
}

// NewUint64Config creates a env-based uint64 config
func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

// NewStringConfig creates a env-based string config
func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

// NewBoolConfig creates a env-based bool config
func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

// NewDurationConfig creates a env-based duration config
func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
