package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

// Key identifies an adapter in a Manager: the platform name, optionally
// followed by "/" and the account label.
func Key(platformName, account string) string {
	if account == "" {
		return platformName
	}
	return platformName + "/" + account
}

// Manager holds one adapter per platform account.
//
// Manager is thread-safe and can be used concurrently.
type Manager struct {
	adapters map[string]platform.Adapter
	opts     []platform.ClientOption
	mu       sync.RWMutex
}

// NewManager creates an empty manager. opts are passed to every adapter it
// creates.
func NewManager(opts ...platform.ClientOption) *Manager {
	return &Manager{
		adapters: make(map[string]platform.Adapter),
		opts:     opts,
	}
}

// Add creates an adapter for cfg. An existing adapter with the same key is
// closed and replaced.
func (m *Manager) Add(cfg platform.Config) error {
	adapter, err := New(cfg, m.opts...)
	if err != nil {
		return err
	}
	m.Put(Key(cfg.Name, cfg.Account), adapter)
	return nil
}

// Put registers an already constructed adapter under key, closing any
// adapter it replaces.
func (m *Manager) Put(key string, adapter platform.Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.adapters[key]; ok {
		slog.Warn("replacing existing platform adapter", "key", key)
		_ = existing.Close()
	}
	m.adapters[key] = adapter

	slog.Info("platform adapter added",
		"key", key,
		"total_adapters", len(m.adapters),
	)
}

// Remove closes and removes the adapter under key.
func (m *Manager) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	adapter, ok := m.adapters[key]
	if !ok {
		return fmt.Errorf("platform adapter %q not found", key)
	}
	if err := adapter.Close(); err != nil {
		slog.Error("error closing platform adapter", "key", key, "error", err)
	}
	delete(m.adapters, key)
	return nil
}

// Get returns the adapter under key.
func (m *Manager) Get(key string) (platform.Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	adapter, ok := m.adapters[key]
	if !ok {
		return nil, fmt.Errorf("platform adapter %q not found", key)
	}
	return adapter, nil
}

// Adapters returns a copy of the adapter map.
func (m *Manager) Adapters() map[string]platform.Adapter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]platform.Adapter, len(m.adapters))
	for k, a := range m.adapters {
		out[k] = a
	}
	return out
}

// Keys returns the registered keys in sorted order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.adapters))
	for k := range m.adapters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of adapters.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.adapters)
}

// LoadFromConfig adds an adapter per config. Failures are collected and
// returned together; successfully created adapters stay registered.
func (m *Manager) LoadFromConfig(configs []platform.Config) error {
	var errs []error
	for _, cfg := range configs {
		if err := m.Add(cfg); err != nil {
			errs = append(errs, err)
			slog.Error("failed to load platform adapter",
				"platform", cfg.Name,
				"account", cfg.Account,
				"error", err,
			)
		}
	}
	return errors.Join(errs...)
}

// Close closes every adapter and empties the manager.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for key, adapter := range m.adapters {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close adapter %q: %w", key, err))
		}
	}
	m.adapters = make(map[string]platform.Adapter)

	return errors.Join(errs...)
}

// HealthSummary provides an overview of adapter health across the manager.
type HealthSummary struct {
	// Total is the total number of adapters
	Total int

	// Healthy is the number of healthy adapters
	Healthy int

	// Unhealthy is the number of unhealthy adapters
	Unhealthy int

	// Details contains per-adapter health information
	Details map[string]platform.Health
}

// HealthSummary returns the health of every adapter.
func (m *Manager) HealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.adapters),
		Details: make(map[string]platform.Health, len(m.adapters)),
	}
	for key, adapter := range m.adapters {
		h := adapter.Health()
		summary.Details[key] = h
		if h.IsHealthy {
			summary.Healthy++
		}
	}
	summary.Unhealthy = summary.Total - summary.Healthy
	return summary
}
