package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"ccode/internal/logger"
	"ccode/internal/validation"
	"ccode/pkg/ccodetypes"
)

// ProviderOp selects the single change UpdateProviderOnly applies to the Providers list.
type ProviderOp int

// Provider operations.
const (
	ProviderAdd ProviderOp = iota
	ProviderUpdate
	ProviderRemove
)

func (op ProviderOp) String() string {
	switch op {
	case ProviderAdd:
		return "add"
	case ProviderUpdate:
		return "update"
	case ProviderRemove:
		return "remove"
	default:
		return fmt.Sprintf("ProviderOp(%d)", int(op))
	}
}

// BasicOptions are the scalar proxy settings. Nil fields are left untouched;
// an empty string removes the key.
type BasicOptions struct {
	APIKey       *string
	ProxyURL     *string
	Log          *bool
	APITimeoutMS *int
	Host         *string
}

// ProxyStats summarizes the proxy configuration.
type ProxyStats struct {
	Exists               bool
	ProviderCount        int
	ModelCount           int
	DefaultRoute         string
	HasBackground        bool
	HasThink             bool
	HasLongContext       bool
	HasWebSearch         bool
	LongContextThreshold int
	APITimeoutMS         *int
	LogEnabled           bool
}

// ProxyConfigService reads and writes the proxy's config.json. Every mutating
// operation validates, backs up the existing file, then writes atomically.
// Partial updates patch the raw document so fields outside the touched node
// keep their exact values, including keys this service does not model.
type ProxyConfigService struct {
	initialized bool
	path        string
	backup      *BackupService
	keep        int
	autoCleanup bool
	logger      *log.Logger
}

// NewProxyConfigService creates a service for the proxy configuration at path.
func NewProxyConfigService(path string, backup *BackupService) *ProxyConfigService {
	return &ProxyConfigService{
		path:   path,
		backup: backup,
		logger: logger.NewStyledLogger("ProxyConfig"),
	}
}

// Name returns the service name "proxy_config" for registration.
func (s *ProxyConfigService) Name() string {
	return "proxy_config"
}

// Initialize prepares the service and its backup service for use.
func (s *ProxyConfigService) Initialize() error {
	if s.backup == nil {
		return fmt.Errorf("proxy config service requires a backup service")
	}
	if !s.backup.initialized {
		if err := s.backup.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize backup service: %w", err)
		}
	}
	s.initialized = true
	return nil
}

// SetRetention enables pruning of old backups after each successful write.
func (s *ProxyConfigService) SetRetention(keep int, autoCleanup bool) {
	s.keep = keep
	s.autoCleanup = autoCleanup && keep > 0
}

// Path returns the proxy configuration path.
func (s *ProxyConfigService) Path() string {
	return s.path
}

// ConfigExists reports whether the proxy configuration file exists.
func (s *ProxyConfigService) ConfigExists() bool {
	return fileExists(s.path)
}

// Load returns the current document, or a default unconfigured document when the file does not exist.
func (s *ProxyConfigService) Load() (*ccodetypes.ProxyConfig, error) {
	if !s.initialized {
		return nil, fmt.Errorf("proxy config service not initialized")
	}
	doc, _, err := s.loadRaw()
	return doc, err
}

// Save validates the whole document and replaces the file with it.
func (s *ProxyConfigService) Save(doc *ccodetypes.ProxyConfig) error {
	if !s.initialized {
		return fmt.Errorf("proxy config service not initialized")
	}

	if err := validation.ValidateProxyConfig(doc); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode proxy config: %w", err)
	}
	return s.commit(formatJSON(data), "save")
}

// UpdateProviderOnly applies exactly one change to the Providers list. Remove only needs provider.Name.
// Removing a provider that routes still reference is allowed and logged as a warning.
func (s *ProxyConfigService) UpdateProviderOnly(provider ccodetypes.Provider, op ProviderOp) error {
	if !s.initialized {
		return fmt.Errorf("proxy config service not initialized")
	}

	doc, raw, err := s.loadRaw()
	if err != nil {
		return err
	}

	idx, found := doc.FindProvider(provider.Name)

	switch op {
	case ProviderAdd:
		if found {
			return ccodetypes.AlreadyExists("provider", provider.Name)
		}
		if err := validation.ValidateProvider(provider); err != nil {
			return ccodetypes.WithSubject(err, "provider", provider.Name)
		}
		raw, err = appendProvider(raw, provider)
		if err != nil {
			return err
		}

	case ProviderUpdate:
		if !found {
			return ccodetypes.NotFound("provider", provider.Name)
		}
		if err := validation.ValidateProvider(provider); err != nil {
			return ccodetypes.WithSubject(err, "provider", provider.Name)
		}
		raw, err = sjson.SetBytes(raw, providerPath(idx), provider)
		if err != nil {
			return fmt.Errorf("failed to update provider: %w", err)
		}

	case ProviderRemove:
		if strings.TrimSpace(provider.Name) == "" {
			return ccodetypes.InvalidConfig("name", "provider name must not be empty")
		}
		if !found {
			return ccodetypes.NotFound("provider", provider.Name)
		}
		raw, err = sjson.DeleteBytes(raw, providerPath(idx))
		if err != nil {
			return fmt.Errorf("failed to remove provider: %w", err)
		}
		for _, r := range doc.Router.Routes() {
			if ccodetypes.RouteProvider(r.Value) == provider.Name {
				s.logger.Warn("Removed provider is still referenced", "name", provider.Name, "route", r.Key)
			}
		}

	default:
		return fmt.Errorf("unknown provider operation: %s", op)
	}

	return s.commit(raw, op.String()+" provider "+provider.Name)
}

// UpdateRouterOnly validates rs against the current providers and replaces only the Router node.
// Route keys the service does not model are kept.
func (s *ProxyConfigService) UpdateRouterOnly(rs ccodetypes.RouteSet) error {
	if !s.initialized {
		return fmt.Errorf("proxy config service not initialized")
	}

	doc, raw, err := s.loadRaw()
	if err != nil {
		return err
	}

	if err := validation.ValidateRouteSet(rs); err != nil {
		return err
	}
	if err := validation.ValidateCrossReferences(doc.Providers, rs); err != nil {
		return err
	}

	raw, err = patchRouter(raw, rs)
	if err != nil {
		return err
	}
	return s.commit(raw, "update router")
}

// ApplyRouterProfile writes the profile's route set into the proxy configuration.
func (s *ProxyConfigService) ApplyRouterProfile(profile ccodetypes.RouterProfile) error {
	if err := s.UpdateRouterOnly(profile.RouteSet); err != nil {
		if errors.Is(err, ccodetypes.ErrInvalidConfig) {
			return ccodetypes.WithSubject(err, "router profile", profile.Name)
		}
		return err
	}
	s.logger.Info("Router profile applied", "name", profile.Name)
	return nil
}

// SetBasicOptions patches only the scalar settings present in opts.
func (s *ProxyConfigService) SetBasicOptions(opts BasicOptions) error {
	if !s.initialized {
		return fmt.Errorf("proxy config service not initialized")
	}

	if opts.APITimeoutMS != nil && *opts.APITimeoutMS <= 0 {
		return ccodetypes.InvalidConfig(ccodetypes.ProxyKeyAPITimeoutMS, "timeout must be positive")
	}
	if opts.ProxyURL != nil && *opts.ProxyURL != "" && !strings.Contains(*opts.ProxyURL, "://") {
		return ccodetypes.InvalidConfig(ccodetypes.ProxyKeyProxyURL, fmt.Sprintf("proxy URL '%s' must include a scheme", *opts.ProxyURL))
	}

	_, raw, err := s.loadRaw()
	if err != nil {
		return err
	}

	patches := []struct {
		key   string
		value any
		set   bool
	}{
		{ccodetypes.ProxyKeyAPIKey, stringValue(opts.APIKey), opts.APIKey != nil},
		{ccodetypes.ProxyKeyProxyURL, stringValue(opts.ProxyURL), opts.ProxyURL != nil},
		{ccodetypes.ProxyKeyLog, boolValue(opts.Log), opts.Log != nil},
		{ccodetypes.ProxyKeyAPITimeoutMS, intValue(opts.APITimeoutMS), opts.APITimeoutMS != nil},
		{ccodetypes.ProxyKeyHost, stringValue(opts.Host), opts.Host != nil},
	}

	changed := false
	for _, p := range patches {
		if !p.set {
			continue
		}
		changed = true
		if str, ok := p.value.(string); ok && str == "" {
			raw, err = sjson.DeleteBytes(raw, p.key)
		} else {
			raw, err = sjson.SetBytes(raw, p.key, p.value)
		}
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", p.key, err)
		}
	}
	if !changed {
		return nil
	}

	return s.commit(raw, "set basic options")
}

// GetProvider returns the named provider.
func (s *ProxyConfigService) GetProvider(name string) (ccodetypes.Provider, error) {
	doc, err := s.Load()
	if err != nil {
		return ccodetypes.Provider{}, err
	}
	idx, ok := doc.FindProvider(name)
	if !ok {
		return ccodetypes.Provider{}, ccodetypes.NotFound("provider", name)
	}
	return doc.Providers[idx], nil
}

// ListProviders returns the providers in document order.
func (s *ProxyConfigService) ListProviders() ([]ccodetypes.Provider, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc.Providers, nil
}

// ProviderExists reports whether a provider with the given name is declared.
func (s *ProxyConfigService) ProviderExists(name string) (bool, error) {
	doc, err := s.Load()
	if err != nil {
		return false, err
	}
	_, ok := doc.FindProvider(name)
	return ok, nil
}

// CurrentRouteSet returns the Router node of the current document.
func (s *ProxyConfigService) CurrentRouteSet() (ccodetypes.RouteSet, error) {
	doc, err := s.Load()
	if err != nil {
		return ccodetypes.RouteSet{}, err
	}
	return doc.Router, nil
}

// ValidateCrossReferences returns every route whose provider is not declared. It is advisory and never writes.
func (s *ProxyConfigService) ValidateCrossReferences() ([]validation.ReferenceProblem, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return validation.CrossReferenceProblems(doc.Providers, doc.Router), nil
}

// Stats summarizes the current document.
func (s *ProxyConfigService) Stats() (ProxyStats, error) {
	doc, err := s.Load()
	if err != nil {
		return ProxyStats{}, err
	}

	stats := ProxyStats{
		Exists:               s.ConfigExists(),
		ProviderCount:        len(doc.Providers),
		DefaultRoute:         doc.Router.Default,
		HasBackground:        strings.TrimSpace(doc.Router.Background) != "",
		HasThink:             strings.TrimSpace(doc.Router.Think) != "",
		HasLongContext:       strings.TrimSpace(doc.Router.LongContext) != "",
		HasWebSearch:         strings.TrimSpace(doc.Router.WebSearch) != "",
		LongContextThreshold: doc.Router.Threshold(),
		APITimeoutMS:         doc.APITimeoutMS,
		LogEnabled:           doc.Log != nil && *doc.Log,
	}
	for _, p := range doc.Providers {
		stats.ModelCount += len(p.Models)
	}
	return stats, nil
}

// loadRaw returns the parsed document together with the bytes later patches apply to.
// A missing file yields the default document and its encoding.
func (s *ProxyConfigService) loadRaw() (*ccodetypes.ProxyConfig, []byte, error) {
	raw, exists, err := readFileIfExists(s.path)
	if err != nil {
		return nil, nil, err
	}

	if !exists {
		doc := ccodetypes.NewProxyConfig()
		raw, err = json.Marshal(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode default proxy config: %w", err)
		}
		return doc, raw, nil
	}

	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, nil, ccodetypes.MalformedDocument(s.path, fmt.Errorf("not a JSON object"))
	}

	var doc ccodetypes.ProxyConfig
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, ccodetypes.MalformedDocument(s.path, err)
	}
	if doc.Providers == nil {
		doc.Providers = []ccodetypes.Provider{}
	}
	return &doc, raw, nil
}

// commit backs up the existing file, writes raw atomically, then prunes old backups.
// raw is re-indented only when the file on disk is absent or already in formatJSON layout;
// a hand-formatted file keeps the bytes of every node the patch did not touch.
func (s *ProxyConfigService) commit(raw []byte, operation string) error {
	current, exists, err := readFileIfExists(s.path)
	if err != nil {
		return err
	}

	backupName := ""
	if exists {
		name, err := s.backup.CreateBackup()
		if err != nil {
			return fmt.Errorf("failed to back up proxy config before %s: %w", operation, err)
		}
		backupName = name
	}

	data := raw
	if !exists || isFormatted(current) {
		data = formatJSON(raw)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.logger.Debug("Proxy config written", "operation", operation, "path", s.path, "backup", backupName, "bytes", len(data))

	if s.autoCleanup {
		if _, err := s.backup.Cleanup(s.keep); err != nil {
			s.logger.Warn("Backup cleanup failed", "error", err)
		}
	}
	return nil
}

func providerPath(idx int) string {
	return fmt.Sprintf("%s.%d", ccodetypes.ProxyKeyProviders, idx)
}

func appendProvider(raw []byte, provider ccodetypes.Provider) ([]byte, error) {
	var err error
	if gjson.GetBytes(raw, ccodetypes.ProxyKeyProviders).IsArray() {
		raw, err = sjson.SetBytes(raw, ccodetypes.ProxyKeyProviders+".-1", provider)
	} else {
		raw, err = sjson.SetBytes(raw, ccodetypes.ProxyKeyProviders, []ccodetypes.Provider{provider})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add provider: %w", err)
	}
	return raw, nil
}

// patchRouter writes each modelled route key of rs into the Router node, deleting blank optional routes.
func patchRouter(raw []byte, rs ccodetypes.RouteSet) ([]byte, error) {
	var err error
	if !gjson.GetBytes(raw, ccodetypes.ProxyKeyRouter).IsObject() {
		return sjson.SetBytes(raw, ccodetypes.ProxyKeyRouter, rs)
	}

	for _, r := range append([]ccodetypes.NamedRoute{{Key: ccodetypes.RouteDefault, Value: rs.Default}}, rs.OptionalRoutes()...) {
		path := ccodetypes.ProxyKeyRouter + "." + r.Key
		if strings.TrimSpace(r.Value) == "" {
			raw, err = sjson.DeleteBytes(raw, path)
		} else {
			raw, err = sjson.SetBytes(raw, path, r.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update route %s: %w", r.Key, err)
		}
	}

	thresholdPath := ccodetypes.ProxyKeyRouter + ".longContextThreshold"
	if rs.LongContextThreshold != nil {
		raw, err = sjson.SetBytes(raw, thresholdPath, *rs.LongContextThreshold)
	} else {
		raw, err = sjson.DeleteBytes(raw, thresholdPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update long context threshold: %w", err)
	}
	return raw, nil
}

func stringValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolValue(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func intValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
