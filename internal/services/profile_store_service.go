package services

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"ccode/internal/logger"
	"ccode/internal/migration"
	"ccode/internal/validation"
	"ccode/internal/version"
	"ccode/pkg/ccodetypes"
)

// Collection subjects used in errors and listings.
const (
	SubjectDirectProfile = "direct profile"
	SubjectRouterProfile = "router profile"
)

// ProfileStoreService owns the local profile store: direct and router
// profile collections plus their default pointers. Collection changes are
// held in memory until Save.
type ProfileStoreService struct {
	initialized bool
	path        string
	doc         *ccodetypes.StoreDocument
	direct      *Collection[ccodetypes.DirectProfile]
	router      *Collection[ccodetypes.RouterProfile]
	logger      *log.Logger
}

// NewProfileStoreService creates a store backed by the document at path.
func NewProfileStoreService(path string) *ProfileStoreService {
	s := &ProfileStoreService{
		path:   path,
		logger: logger.NewStyledLogger("ProfileStore"),
	}
	s.bind(ccodetypes.NewStoreDocument(version.StoreSchemaVersion))
	return s
}

// Name returns the service name "profile_store" for registration.
func (s *ProfileStoreService) Name() string {
	return "profile_store"
}

// Initialize loads the store document from disk.
func (s *ProfileStoreService) Initialize() error {
	if err := s.Load(); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Path returns the store document path.
func (s *ProfileStoreService) Path() string {
	return s.path
}

// Load replaces the in-memory document with the one on disk, migrated to the
// current layout. A missing file loads as an empty store.
func (s *ProfileStoreService) Load() error {
	data, exists, err := readFileIfExists(s.path)
	if err != nil {
		return err
	}

	var stored *ccodetypes.StoreDocument
	if exists {
		stored = &ccodetypes.StoreDocument{}
		if err := json.Unmarshal(data, stored); err != nil {
			return ccodetypes.MalformedDocument(s.path, err)
		}
	}

	doc, err := migration.Migrate(stored)
	if err != nil {
		return ccodetypes.MalformedDocument(s.path, err)
	}
	if exists && migration.NeedsMigration(stored) {
		s.logger.Info("Profile store upgraded to current layout", "path", s.path, "version", doc.Version)
	}

	s.bind(doc)
	return nil
}

// Save writes the in-memory document atomically. It refuses to run before
// Initialize so an unloaded store never overwrites an existing file.
func (s *ProfileStoreService) Save() error {
	if !s.initialized {
		return fmt.Errorf("profile store service not initialized")
	}

	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to encode profile store: %w", err)
	}

	data = formatJSON(data)
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.logger.Debug("Profile store written", "path", s.path, "bytes", len(data))
	return nil
}

// Document returns the in-memory store document.
func (s *ProfileStoreService) Document() *ccodetypes.StoreDocument {
	return s.doc
}

// Direct returns the direct profile collection.
func (s *ProfileStoreService) Direct() *Collection[ccodetypes.DirectProfile] {
	return s.direct
}

// Router returns the router profile collection.
func (s *ProfileStoreService) Router() *Collection[ccodetypes.RouterProfile] {
	return s.router
}

// DefaultGroup returns the group used when a command does not name one.
func (s *ProfileStoreService) DefaultGroup() string {
	return s.doc.DefaultGroup
}

// SetDefaultGroup changes the default group to "direct" or "router".
func (s *ProfileStoreService) SetDefaultGroup(group string) error {
	if group != ccodetypes.GroupDirect && group != ccodetypes.GroupRouter {
		return ccodetypes.InvalidConfig("default_group", fmt.Sprintf("unknown group '%s'", group))
	}
	s.doc.DefaultGroup = group
	return nil
}

// UseRouterProfile applies the named router profile to the proxy configuration,
// then makes it the default router profile and persists the store.
// The store is left unchanged when the proxy configuration rejects the profile.
func (s *ProfileStoreService) UseRouterProfile(name string, proxy *ProxyConfigService) error {
	profile, err := s.router.Get(name)
	if err != nil {
		return err
	}
	if profile.Name == "" {
		profile.Name = name
	}

	if err := proxy.ApplyRouterProfile(profile); err != nil {
		return err
	}

	previous := s.router.DefaultName()
	if err := s.router.SetDefault(name); err != nil {
		return err
	}
	if err := s.Save(); err != nil {
		s.doc.Defaults.Router = previous
		return err
	}
	return nil
}

func (s *ProfileStoreService) bind(doc *ccodetypes.StoreDocument) {
	s.doc = doc
	s.direct = newCollection(SubjectDirectProfile, doc.Groups.Direct, &doc.Defaults.Direct, validateDirectEntry)
	s.router = newCollection(SubjectRouterProfile, doc.Groups.Router, &doc.Defaults.Router, validateRouterEntry)
}

func validateDirectEntry(_ string, p ccodetypes.DirectProfile) error {
	return validation.ValidateDirectProfile(p)
}

// validateRouterEntry accepts an empty profile name, which means the entry key is the name.
func validateRouterEntry(name string, p ccodetypes.RouterProfile) error {
	if p.Name != "" && p.Name != name {
		return ccodetypes.InvalidConfig("name", fmt.Sprintf("profile name '%s' does not match key '%s'", p.Name, name))
	}
	if p.Name == "" {
		p.Name = name
	}
	return validation.ValidateRouterProfile(p)
}
