// Package migration upgrades profile store documents written by older
// releases into the current grouped layout. Migrate runs on every load,
// before any other component reads the document.
package migration

import (
	"errors"
	"fmt"

	"ccode/internal/version"
	"ccode/pkg/ccodetypes"
)

// ErrSchemaTooNew is returned for documents written by a newer, incompatible release.
var ErrSchemaTooNew = errors.New("store schema version is newer than supported")

// Migrate returns an upgraded copy of doc; doc itself is never modified.
//
// Legacy profiles are moved into groups.direct, overwriting same-named
// entries. The legacy default becomes the direct default only when no
// direct default is set, and is dropped otherwise. Default pointers that
// name no existing entry are cleared. Migrate is idempotent.
func Migrate(doc *ccodetypes.StoreDocument) (*ccodetypes.StoreDocument, error) {
	if doc == nil {
		return ccodetypes.NewStoreDocument(version.StoreSchemaVersion), nil
	}

	out := clone(doc)

	switch version.CheckSchema(out.Version) {
	case version.SchemaTooNew:
		return nil, fmt.Errorf("%w: found '%s', supported '%s'", ErrSchemaTooNew, out.Version, version.StoreSchemaVersion)
	case version.SchemaLegacy:
		out.Version = version.StoreSchemaVersion
	}

	for name, profile := range out.LegacyProfiles {
		out.Groups.Direct[name] = profile
	}
	out.LegacyProfiles = nil

	if out.LegacyDefault != nil {
		if out.Defaults.Direct == "" {
			out.Defaults.Direct = *out.LegacyDefault
		}
		out.LegacyDefault = nil
	}

	if out.DefaultGroup == "" {
		out.DefaultGroup = ccodetypes.GroupDirect
	}

	if _, ok := out.Groups.Direct[out.Defaults.Direct]; !ok {
		out.Defaults.Direct = ""
	}
	if _, ok := out.Groups.Router[out.Defaults.Router]; !ok {
		out.Defaults.Router = ""
	}

	// Router profiles persisted before names were stored carry only the map key.
	for name, profile := range out.Groups.Router {
		if profile.Name == "" {
			profile.Name = name
			out.Groups.Router[name] = profile
		}
	}

	return out, nil
}

// NeedsMigration reports whether Migrate would change doc.
func NeedsMigration(doc *ccodetypes.StoreDocument) bool {
	if doc == nil {
		return true
	}
	return doc.LegacyDefault != nil ||
		doc.LegacyProfiles != nil ||
		doc.DefaultGroup == "" ||
		version.CheckSchema(doc.Version) == version.SchemaLegacy
}

func clone(doc *ccodetypes.StoreDocument) *ccodetypes.StoreDocument {
	out := &ccodetypes.StoreDocument{
		Version:      doc.Version,
		DefaultGroup: doc.DefaultGroup,
		Defaults:     doc.Defaults,
		Groups: ccodetypes.Groups{
			Direct: make(map[string]ccodetypes.DirectProfile, len(doc.Groups.Direct)+len(doc.LegacyProfiles)),
			Router: make(map[string]ccodetypes.RouterProfile, len(doc.Groups.Router)),
		},
	}
	for k, v := range doc.Groups.Direct {
		out.Groups.Direct[k] = v
	}
	for k, v := range doc.Groups.Router {
		out.Groups.Router[k] = cloneRouterProfile(v)
	}

	if doc.LegacyDefault != nil {
		legacyDefault := *doc.LegacyDefault
		out.LegacyDefault = &legacyDefault
	}
	if doc.LegacyProfiles != nil {
		out.LegacyProfiles = make(map[string]ccodetypes.DirectProfile, len(doc.LegacyProfiles))
		for k, v := range doc.LegacyProfiles {
			out.LegacyProfiles[k] = v
		}
	}
	return out
}

func cloneRouterProfile(p ccodetypes.RouterProfile) ccodetypes.RouterProfile {
	if p.RouteSet.LongContextThreshold != nil {
		threshold := *p.RouteSet.LongContextThreshold
		p.RouteSet.LongContextThreshold = &threshold
	}
	return p
}
