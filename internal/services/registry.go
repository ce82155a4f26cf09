package services

import (
	"fmt"
	"sync"

	"ccode/pkg/ccodetypes"
)

// Registry manages service registration and lifecycle for ccode services.
// Services are initialized in registration order, so dependencies must be registered first.
type Registry struct {
	mu       sync.RWMutex
	services map[string]ccodetypes.Service
	order    []string
}

// NewRegistry creates a new service registry with an empty service map.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]ccodetypes.Service),
	}
}

// RegisterService adds a service to the registry, returning an error if already registered.
func (r *Registry) RegisterService(service ccodetypes.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.services[name] = service
	r.order = append(r.order, name)
	return nil
}

// GetService retrieves a service by name, returning an error if not found.
func (r *Registry) GetService(name string) (ccodetypes.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}

	return service, nil
}

// InitializeAll initializes all registered services in registration order.
func (r *Registry) InitializeAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if err := r.services[name].Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", name, err)
		}
	}

	return nil
}

// ServiceNames returns the registered service names in registration order.
func (r *Registry) ServiceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

func getTyped[T ccodetypes.Service](r *Registry, name string) (T, error) {
	var zero T
	service, err := r.GetService(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %s has unexpected type %T", name, service)
	}
	return typed, nil
}

// BackupService returns the registered backup service.
func (r *Registry) BackupService() (*BackupService, error) {
	return getTyped[*BackupService](r, "backup")
}

// ProxyConfigService returns the registered proxy config service.
func (r *Registry) ProxyConfigService() (*ProxyConfigService, error) {
	return getTyped[*ProxyConfigService](r, "proxy_config")
}

// ProfileStoreService returns the registered profile store service.
func (r *Registry) ProfileStoreService() (*ProfileStoreService, error) {
	return getTyped[*ProfileStoreService](r, "profile_store")
}

// BootstrapService returns the registered bootstrap service.
func (r *Registry) BootstrapService() (*BootstrapService, error) {
	return getTyped[*BootstrapService](r, "bootstrap")
}

// ProviderKindService returns the registered provider kind service.
func (r *Registry) ProviderKindService() (*ProviderKindService, error) {
	return getTyped[*ProviderKindService](r, "provider_kind")
}

// StorageSettings supplies the file locations and backup retention the services run against.
type StorageSettings interface {
	StorePath() string
	ProxyConfigPath() string
	BackupDir() string
	BackupKeep() int
	AutoCleanup() bool
}

// NewDefaultRegistry wires and initializes every ccode service for the given settings.
func NewDefaultRegistry(cfg StorageSettings) (*Registry, error) {
	backup := NewBackupService(cfg.ProxyConfigPath(), cfg.BackupDir())
	proxy := NewProxyConfigService(cfg.ProxyConfigPath(), backup)
	proxy.SetRetention(cfg.BackupKeep(), cfg.AutoCleanup())
	store := NewProfileStoreService(cfg.StorePath())

	registry := NewRegistry()
	for _, service := range []ccodetypes.Service{
		NewProviderKindService(),
		backup,
		proxy,
		store,
		NewBootstrapService(store, proxy),
	} {
		if err := registry.RegisterService(service); err != nil {
			return nil, err
		}
	}

	if err := registry.InitializeAll(); err != nil {
		return nil, err
	}
	return registry, nil
}
