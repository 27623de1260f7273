// Package plugin provides the generic registry shared by every capability
// family: config fixers, LLM backends, and attack simulators. A family is a
// Registry[T] instantiated with its own plugin interface; registration,
// lazy initialization, and lookup behave identically across families.
package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
)

// Plugin is the contract every capability plugin satisfies. Initialize
// receives the free-form settings map from configuration and is called once
// per successful construction.
type Plugin interface {
	Name() string
	Description() string
	Initialize(settings map[string]any) error
}

// Factory constructs an uninitialized plugin instance.
type Factory[T Plugin] func() T

// Registry holds the factories and initialized instances for one capability
// family. Lookups are case-insensitive. A plugin whose Initialize fails is
// not cached, so a later Get retries with fresh settings.
type Registry[T Plugin] struct {
	family string
	logger zerolog.Logger

	mu        sync.Mutex
	factories map[string]Factory[T]
	instances map[string]T
}

// NewRegistry creates an empty registry for the named capability family.
func NewRegistry[T Plugin](family string, logger zerolog.Logger) *Registry[T] {
	return &Registry[T]{
		family:    family,
		logger:    logger.With().Str("component", "registry").Str("family", family).Logger(),
		factories: make(map[string]Factory[T]),
		instances: make(map[string]T),
	}
}

// Register adds a factory under the plugin's own reported name. Registering
// a name twice is a programming error and is rejected.
func (r *Registry[T]) Register(factory Factory[T]) error {
	probe := factory()
	key := strings.ToLower(probe.Name())
	if key == "" {
		return fmt.Errorf("plugin factory reported an empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("plugin %q already registered in %s registry", probe.Name(), r.family)
	}
	r.factories[key] = factory
	r.logger.Debug().Str("plugin", key).Msg("plugin registered")
	return nil
}

// Names returns the registered plugin names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered plugins.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.factories)
}

// Get returns the initialized instance for name, constructing and
// initializing it on first use. Unknown names return core.ErrNotFound;
// initialization failures return *core.InitError and leave nothing cached.
func (r *Registry[T]) Get(name string, settings map[string]any) (T, error) {
	var zero T
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[key]; ok {
		return inst, nil
	}

	factory, ok := r.factories[key]
	if !ok {
		return zero, fmt.Errorf("%s plugin %q: %w", r.family, name, core.ErrNotFound)
	}

	inst := factory()
	if err := inst.Initialize(settings); err != nil {
		r.logger.Error().Err(err).Str("plugin", key).Msg("plugin initialization failed")
		return zero, &core.InitError{Name: inst.Name(), Err: err}
	}

	r.instances[key] = inst
	r.logger.Info().Str("plugin", key).Msg("plugin initialized")
	return inst, nil
}

// Find returns the first plugin, in sorted-name order, for which pred is
// true. settingsFor supplies the settings used if a candidate still needs
// initialization; candidates that fail to initialize are skipped. Returns
// core.ErrNotFound when no plugin matches.
func (r *Registry[T]) Find(settingsFor func(name string) map[string]any, pred func(T) bool) (T, error) {
	var zero T

	for _, name := range r.Names() {
		inst, err := r.Get(name, settingsFor(name))
		if err != nil {
			r.logger.Warn().Err(err).Str("plugin", name).Msg("skipping plugin during lookup")
			continue
		}
		if pred(inst) {
			return inst, nil
		}
	}
	return zero, fmt.Errorf("no matching %s plugin: %w", r.family, core.ErrNotFound)
}

// Initialized returns the names of plugins that have been successfully
// initialized, sorted.
func (r *Registry[T]) Initialized() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
