// Package ccodetypes defines the shared data structures used throughout ccode.
//
// The package holds the two independently owned documents the tool keeps
// consistent and every value object that flows between them:
//
//   - Provider, ProviderKind: upstream endpoint definitions (provider_types.go)
//   - RouteSet, Route: "provider,model" routing selections (route_types.go)
//   - DirectProfile, RouterProfile, StoreDocument: the local profile store (store_types.go)
//   - ProxyConfig: the externally consumed proxy configuration (proxy_config_types.go)
//   - BackupEntry: timestamped snapshots of the proxy configuration (backup_types.go)
//   - Error and its sentinel kinds (errors.go)
//   - Service: the lifecycle contract implemented by internal/services (core_interfaces.go)
package ccodetypes
