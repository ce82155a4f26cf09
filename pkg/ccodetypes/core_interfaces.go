package ccodetypes

// Service defines the interface for ccode services that provide specific functionality.
// Services are created with explicit paths and initialized once before use.
type Service interface {
	Name() string
	Initialize() error
}

// ServiceRegistry manages the registration and retrieval of services.
type ServiceRegistry interface {
	GetService(name string) (Service, error)
	RegisterService(service Service) error
}
