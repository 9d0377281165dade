package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/code-vault/pkg/config"
)

var errDeveloperInduced = errors.New("in memory config: developer induced error")

// Config is an in memory config source, used for tests and for wiring
// programmatic overrides into components that expect a config.Config.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	induced  bool
	shutdown bool
}

// NewConfig returns a new in memory config. A nil value means no value is set.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.induced:
		return nil, errDeveloperInduced
	case c.value == nil:
		return nil, config.ErrNoValue
	}

	return c.value, nil
}

// Shutdown implements Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

// SetValue sets the value returned by subsequent Get calls
func (c *Config) SetValue(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// ClearValue makes subsequent Get calls return config.ErrNoValue
func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// InduceErrors simulates a failing config source
func (c *Config) InduceErrors() {
	c.mu.Lock()
	c.induced = true
	c.mu.Unlock()
}

// StopInducingErrors restores normal behaviour after InduceErrors
func (c *Config) StopInducingErrors() {
	c.mu.Lock()
	c.induced = false
	c.mu.Unlock()
}
