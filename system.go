package ledger

import "log/slog"

// System wires the ledger store, the configuration and a logger into one
// accounting engine. All operations take their dependencies from the System;
// nothing reads ambient globals.
type System struct {
	store *Store
	cfg   *Config
	log   *slog.Logger
}

// NewSystem creates an accounting system over the given store. A nil config
// falls back to DefaultConfig, a nil logger to slog.Default.
func NewSystem(store *Store, cfg *Config, log *slog.Logger) *System {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &System{store: store, cfg: cfg, log: log}
}

// Store exposes the underlying ledger store.
func (s *System) Store() *Store { return s.store }

// Config exposes the system configuration.
func (s *System) Config() *Config { return s.cfg }

// Close closes the underlying store.
func (s *System) Close() error { return s.store.Close() }
