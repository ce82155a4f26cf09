// Package ccodetypes defines the local profile store document for ccode.
// This file contains direct profiles, router profiles and the grouped store layout.
package ccodetypes

// Profile groups.
const (
	GroupDirect = "direct"
	GroupRouter = "router"
)

// DefaultRouterProfileName is the router profile synthesized from an existing proxy configuration.
const DefaultRouterProfileName = "default"

// DirectProfile is a provider-less connection profile used for direct pass-through.
// Field names match the environment variables exported to the client.
type DirectProfile struct {
	AuthToken      string `json:"ANTHROPIC_AUTH_TOKEN"`
	BaseURL        string `json:"ANTHROPIC_BASE_URL"`
	Model          string `json:"ANTHROPIC_MODEL,omitempty"`
	SmallFastModel string `json:"ANTHROPIC_SMALL_FAST_MODEL,omitempty"`
	Description    string `json:"description,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// RouterProfile is a named, locally stored route set.
type RouterProfile struct {
	Name        string   `json:"name"`
	RouteSet    RouteSet `json:"router"`
	Description string   `json:"description,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// DefaultProfile holds the per-group default selection pointers. Empty means unset.
type DefaultProfile struct {
	Direct string `json:"direct,omitempty"`
	Router string `json:"router,omitempty"`
}

// Groups holds the named profile collections.
type Groups struct {
	Direct map[string]DirectProfile `json:"direct"`
	Router map[string]RouterProfile `json:"router"`
}

// StoreDocument is the on-disk profile store.
type StoreDocument struct {
	// Version is the schema version; see internal/version for compatibility rules
	Version string `json:"version"`

	// DefaultGroup is the group used when a command does not name one
	DefaultGroup string `json:"default_group,omitempty"`

	// Defaults points at the default entry of each group
	Defaults DefaultProfile `json:"default_profile"`

	// Groups holds the collections, keyed by unique profile name
	Groups Groups `json:"groups"`

	// LegacyDefault is the pre-group top-level default; cleared by migration
	LegacyDefault *string `json:"default,omitempty"`

	// LegacyProfiles is the pre-group flat profile map; cleared by migration
	LegacyProfiles map[string]DirectProfile `json:"profiles,omitempty"`
}

// NewStoreDocument returns an empty document in the current shape.
func NewStoreDocument(version string) *StoreDocument {
	return &StoreDocument{
		Version:      version,
		DefaultGroup: GroupDirect,
		Groups: Groups{
			Direct: make(map[string]DirectProfile),
			Router: make(map[string]RouterProfile),
		},
	}
}

// ProfileEntry is one row of a collection listing.
type ProfileEntry[T any] struct {
	Name      string
	Value     T
	IsDefault bool
}
