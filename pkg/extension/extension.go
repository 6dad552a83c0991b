// Package extension is the plug-in container described by spec.md §4.9
// "Extension-Service Container". Rather than instantiate plug-ins by
// reflecting on a configured class name, services register a named factory
// function at init time (spec.md "Design Notes"); the container looks
// names up in that registry.
package extension

import (
	"fmt"
	"sync"

	"github.com/cuemby/atsbridge/pkg/log"
)

// Binding is the context handed to every extension service on Start
// (spec.md §6 "start(binding{context, appId, attemptId?})").
type Binding struct {
	AppID     string
	AttemptID string // empty if the application was not run with attempts
}

// Service is the extension-service contract (spec.md §6).
type Service interface {
	Start(Binding) error
	Stop() error
}

// Factory constructs a Service instance. Registered once per service name.
type Factory func() Service

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register adds a named factory to the package-level registry. Call it
// from an init() in the package implementing the service, mirroring how
// pkg/metrics registers its collectors.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// lookup returns the factory registered under name, if any.
func lookup(name string) (Factory, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factory, ok := registry[name]
	return factory, ok
}

// Container instantiates and runs the configured set of extension
// services, in the order given (spec.md §4.9).
type Container struct {
	mu       sync.Mutex
	names    []string
	services []Service
	started  bool
	stopped  bool
}

// New returns a container for the given comma-separated-then-split list of
// registered service names (spec.md §6 "extension.services").
func New(names []string) *Container {
	return &Container{names: names}
}

// Start instantiates each configured service and calls Start on it, in
// configured order. A second call is a no-op with a warning (spec.md §4.9
// "Double start is a no-op with a warning").
func (c *Container) Start(b Binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		log.WithComponent("extension").Warn().Msg("extension container already started")
		return nil
	}

	for _, name := range c.names {
		factory, ok := lookup(name)
		if !ok {
			return fmt.Errorf("extension: no service registered under %q", name)
		}
		svc := factory()
		if err := svc.Start(b); err != nil {
			return fmt.Errorf("extension: start %q: %w", name, err)
		}
		c.services = append(c.services, svc)
	}
	c.started = true
	return nil
}

// Stop fans out to every started service, in unspecified order, and is
// idempotent (spec.md §4.9 "stop is idempotent").
func (c *Container) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true

	for _, svc := range c.services {
		if err := svc.Stop(); err != nil {
			log.WithComponent("extension").Error().Err(err).Msg("extension service stop failed")
		}
	}
}
