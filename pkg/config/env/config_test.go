package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/code-vault/pkg/config"
)

func TestConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestTypedConfig(t *testing.T) {
	const env = "ENV_CONFIG_TEST_DURATION"

	c := NewDurationConfig(env, time.Second)
	assert.Equal(t, time.Second, c.Get(context.Background()))

	t.Setenv(env, "150ms")
	assert.Equal(t, 150*time.Millisecond, c.Get(context.Background()))

	t.Setenv("ENV_CONFIG_TEST_UINT64", "42")
	assert.EqualValues(t, 42, NewUint64Config("env_config_test_uint64", 1).Get(context.Background()))
}
