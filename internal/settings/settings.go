package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"quickopen/internal/metrics"
)

// ErrUnknownSetting is returned for a name that was never registered.
var ErrUnknownSetting = errors.New("unknown setting")

// OnChange is called with the setting's name after a Set commits.
type OnChange func(name string)

// Store is a persistent, named, JSON-valued settings registry.
type Store interface {
	Register(name string, defaultValue any, onChange OnChange) error
	Get(name string, v any) error
	Set(name string, v any) error
	Close() error
}

// Names of the settings used by the search database.
const (
	Dirs    = "dirs"
	Ignores = "ignores"
)

// DefaultIgnores is the initial ignore pattern list.
var DefaultIgnores = []string{
	".*",
	"*.o",
	"*.obj",
	"*.pyc",
	"*.pyo",
	"*.class",
	"*.a",
	"*.so",
	"*.dylib",
	"*.dll",
	"*.exe",
	"*.swp",
	"*~",
}

// callbacks tracks registered names and their change subscribers.
type callbacks struct {
	mu   sync.RWMutex
	subs map[string][]OnChange
}

func (c *callbacks) add(name string, fn OnChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[string][]OnChange)
	}
	if _, ok := c.subs[name]; !ok {
		c.subs[name] = nil
	}
	if fn != nil {
		c.subs[name] = append(c.subs[name], fn)
	}
}

func (c *callbacks) registered(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subs[name]
	return ok
}

func (c *callbacks) fire(name string) {
	c.mu.RLock()
	subs := append([]OnChange(nil), c.subs[name]...)
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(name)
	}
}

func encode(name string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode setting %s: %w", name, err)
	}
	return string(b), nil
}

func decode(name, raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode setting %s: %w", name, err)
	}
	return nil
}

// observe records a store operation's outcome and duration.
func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SettingsOpsTotal.WithLabelValues(op, status).Inc()
	metrics.SettingsOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
