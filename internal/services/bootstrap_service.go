package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"ccode/internal/logger"
	"ccode/internal/validation"
	"ccode/pkg/ccodetypes"
)

// GeneratedProfileDescription marks router profiles synthesized from an existing proxy configuration.
const GeneratedProfileDescription = "auto-generated from claude-code-router config"

// BootstrapStatus is the outcome of EnsureRouterProfile.
type BootstrapStatus int

// Bootstrap outcomes, evaluated in this order.
const (
	// StatusLocalExists means the store already has at least one router profile
	StatusLocalExists BootstrapStatus = iota
	// StatusGeneratedDefault means a "default" profile was synthesized from the proxy configuration
	StatusGeneratedDefault
	// StatusNeedCreateProvider means there is nothing to build a profile from
	StatusNeedCreateProvider
)

func (s BootstrapStatus) String() string {
	switch s {
	case StatusLocalExists:
		return "local profile exists"
	case StatusGeneratedDefault:
		return "generated default profile"
	case StatusNeedCreateProvider:
		return "need to create a provider"
	default:
		return fmt.Sprintf("BootstrapStatus(%d)", int(s))
	}
}

// BootstrapService decides whether a usable router profile exists locally, can be
// synthesized from the proxy configuration, or must be created by the operator.
type BootstrapService struct {
	initialized bool
	store       *ProfileStoreService
	proxy       *ProxyConfigService
	now         func() time.Time
	logger      *log.Logger
}

// NewBootstrapService creates a resolver over the given store and proxy configuration.
func NewBootstrapService(store *ProfileStoreService, proxy *ProxyConfigService) *BootstrapService {
	return &BootstrapService{
		store:  store,
		proxy:  proxy,
		now:    time.Now,
		logger: logger.NewStyledLogger("Bootstrap"),
	}
}

// Name returns the service name "bootstrap" for registration.
func (b *BootstrapService) Name() string {
	return "bootstrap"
}

// Initialize checks that both collaborators are present.
func (b *BootstrapService) Initialize() error {
	if b.store == nil || b.proxy == nil {
		return fmt.Errorf("bootstrap service requires a profile store and a proxy config service")
	}
	b.initialized = true
	return nil
}

// SetClock replaces the time source used for created_at stamps.
func (b *BootstrapService) SetClock(now func() time.Time) {
	b.now = now
}

// GenerateDefaultRouterProfile builds, without storing, a "default" router profile
// from the proxy configuration's current route set. ok is false when the proxy
// configuration is missing or declares no providers. Dangling route references
// are logged as warnings.
func (b *BootstrapService) GenerateDefaultRouterProfile() (profile ccodetypes.RouterProfile, ok bool, err error) {
	if !b.proxy.ConfigExists() {
		return ccodetypes.RouterProfile{}, false, nil
	}

	doc, err := b.proxy.Load()
	if err != nil {
		return ccodetypes.RouterProfile{}, false, err
	}
	if len(doc.Providers) == 0 {
		return ccodetypes.RouterProfile{}, false, nil
	}

	for _, problem := range validation.CrossReferenceProblems(doc.Providers, doc.Router) {
		b.logger.Warn("Route references an unknown provider", "route", problem.RouteKey, "name", problem.Provider)
	}

	routes := doc.Router
	if routes.LongContextThreshold != nil {
		threshold := *routes.LongContextThreshold
		routes.LongContextThreshold = &threshold
	}

	return ccodetypes.RouterProfile{
		Name:        ccodetypes.DefaultRouterProfileName,
		RouteSet:    routes,
		Description: GeneratedProfileDescription,
		CreatedAt:   b.now().UTC().Format(time.RFC3339),
	}, true, nil
}

// EnsureRouterProfile runs the bootstrap state machine and persists a synthesized profile.
func (b *BootstrapService) EnsureRouterProfile() (BootstrapStatus, error) {
	if !b.initialized {
		return StatusNeedCreateProvider, fmt.Errorf("bootstrap service not initialized")
	}

	if b.store.Router().Len() > 0 {
		return StatusLocalExists, nil
	}

	profile, ok, err := b.GenerateDefaultRouterProfile()
	if err != nil {
		return StatusNeedCreateProvider, err
	}
	if !ok {
		return StatusNeedCreateProvider, nil
	}

	if err := b.store.Router().Add(profile.Name, profile); err != nil {
		return StatusNeedCreateProvider, err
	}
	if err := b.store.Save(); err != nil {
		_ = b.store.Router().Remove(profile.Name)
		return StatusNeedCreateProvider, err
	}

	b.logger.Info("Router profile generated from proxy config", "name", profile.Name, "route", profile.RouteSet.Default)
	return StatusGeneratedDefault, nil
}

// ResolveDefaultProfile returns the named router profile. A missing "default"
// profile is synthesized once through EnsureRouterProfile; any other missing
// name fails with NotFound.
func (b *BootstrapService) ResolveDefaultProfile(name string) (ccodetypes.RouterProfile, error) {
	profile, err := b.store.Router().Get(name)
	if err == nil || !errors.Is(err, ccodetypes.ErrNotFound) || name != ccodetypes.DefaultRouterProfileName {
		return profile, err
	}

	status, ensureErr := b.EnsureRouterProfile()
	if ensureErr != nil {
		return ccodetypes.RouterProfile{}, ensureErr
	}

	switch status {
	case StatusGeneratedDefault:
		return b.store.Router().Get(name)
	case StatusNeedCreateProvider:
		return ccodetypes.RouterProfile{}, &ccodetypes.Error{
			Kind:    ccodetypes.ErrNotFound,
			Subject: SubjectRouterProfile,
			Name:    name,
			Reason:  "no provider configured; add one with 'ccode provider add'",
		}
	default:
		return ccodetypes.RouterProfile{}, err
	}
}
