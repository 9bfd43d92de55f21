package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory is a function that creates a new Connector instance.
type Factory func() Connector

// Registry manages connector factories and connected upstreams.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	active    map[string]Connector // keyed by upstream name
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		active:    make(map[string]Connector),
	}
}

// RegisterDriver registers a connector factory for a driver type.
func (r *Registry) RegisterDriver(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableDrivers()
}

// Connect creates a new connector for the given driver and connects it.
func (r *Registry) Connect(name string, cfg ConnectionConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[cfg.Driver]
	if !ok {
		return fmt.Errorf("unsupported driver: %s (available: %v)", cfg.Driver, r.availableDrivers())
	}

	conn := factory()
	if err := conn.Connect(cfg); err != nil {
		return fmt.Errorf("failed to connect upstream %q: %w", name, err)
	}

	if existing, ok := r.active[name]; ok {
		existing.Disconnect()
	}

	r.active[name] = conn
	return nil
}

// Get returns the connector for an upstream.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.active[name]
	if !ok {
		return nil, fmt.Errorf("upstream %q not found (available: %v)", name, r.activeNames())
	}
	return conn, nil
}

// Disconnect removes and disconnects an upstream.
func (r *Registry) Disconnect(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.active[name]
	if !ok {
		return fmt.Errorf("upstream %q not found", name)
	}

	err := conn.Disconnect()
	delete(r.active, name)
	return err
}

// CloseAll disconnects all upstreams.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, conn := range r.active {
		conn.Disconnect()
		delete(r.active, name)
	}
}

// ListUpstreams returns connected upstream names.
func (r *Registry) ListUpstreams() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeNames()
}

// PingAll pings every connected upstream. The result maps each name to its
// ping error, nil when healthy.
func (r *Registry) PingAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	conns := make(map[string]Connector, len(r.active))
	for name, conn := range r.active {
		conns[name] = conn
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(conns))
	for name, conn := range conns {
		results[name] = conn.Ping(ctx)
	}
	return results
}

func (r *Registry) availableDrivers() []string {
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}

func (r *Registry) activeNames() []string {
	names := make([]string, 0, len(r.active))
	for n := range r.active {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
