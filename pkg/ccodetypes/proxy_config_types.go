// Package ccodetypes defines the external proxy configuration document for ccode.
// Field names are fixed by the proxy and are case-sensitive.
package ccodetypes

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Proxy document keys.
const (
	ProxyKeyAPIKey           = "APIKEY"
	ProxyKeyProxyURL         = "PROXY_URL"
	ProxyKeyLog              = "LOG"
	ProxyKeyAPITimeoutMS     = "API_TIMEOUT_MS"
	ProxyKeyHost             = "HOST"
	ProxyKeyProviders        = "Providers"
	ProxyKeyRouter           = "Router"
	ProxyKeyTransformers     = "transformers"
	ProxyKeyCustomRouterPath = "CUSTOM_ROUTER_PATH"
)

// DefaultAPITimeoutMS is the request timeout written into a freshly created proxy document.
const DefaultAPITimeoutMS = 600000

var proxyConfigKeys = map[string]bool{
	ProxyKeyAPIKey:           true,
	ProxyKeyProxyURL:         true,
	ProxyKeyLog:              true,
	ProxyKeyAPITimeoutMS:     true,
	ProxyKeyHost:             true,
	ProxyKeyProviders:        true,
	ProxyKeyRouter:           true,
	ProxyKeyTransformers:     true,
	ProxyKeyCustomRouterPath: true,
}

// ProxyConfig is the proxy's config.json. Top-level keys the engine does not
// model are kept in Extra and written back unchanged.
type ProxyConfig struct {
	APIKey           string            `json:"APIKEY,omitempty"`
	ProxyURL         string            `json:"PROXY_URL,omitempty"`
	Log              *bool             `json:"LOG,omitempty"`
	APITimeoutMS     *int              `json:"API_TIMEOUT_MS,omitempty"`
	Host             string            `json:"HOST,omitempty"`
	Providers        []Provider        `json:"Providers"`
	Router           RouteSet          `json:"Router"`
	Transformers     []json.RawMessage `json:"transformers,omitempty"`
	CustomRouterPath string            `json:"CUSTOM_ROUTER_PATH,omitempty"`

	// Extra holds unmodelled top-level keys, compacted
	Extra map[string]json.RawMessage `json:"-"`
}

// NewProxyConfig returns the document used when no proxy configuration exists yet.
func NewProxyConfig() *ProxyConfig {
	logEnabled := true
	timeout := DefaultAPITimeoutMS
	return &ProxyConfig{
		Log:          &logEnabled,
		APITimeoutMS: &timeout,
		Providers:    []Provider{},
		Router:       NewRouteSet(PlaceholderRoute),
	}
}

// FindProvider returns the index of the named provider.
func (c *ProxyConfig) FindProvider(name string) (int, bool) {
	for i, p := range c.Providers {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ProviderNames returns the set of declared provider names.
func (c *ProxyConfig) ProviderNames() map[string]bool {
	names := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		names[p.Name] = true
	}
	return names
}

// MarshalJSON writes the modelled fields followed by Extra keys in sorted order.
func (c ProxyConfig) MarshalJSON() ([]byte, error) {
	type plain ProxyConfig
	p := plain(c)
	if p.Providers == nil {
		p.Providers = []Provider{}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		if !proxyConfigKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		data, err = sjson.SetRawBytes(data, EscapePathKey(k), c.Extra[k])
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// UnmarshalJSON reads the modelled fields and captures every other top-level key into Extra.
// Raw payloads are compacted so that a document compares equal regardless of file indentation.
func (c *ProxyConfig) UnmarshalJSON(data []byte) error {
	type plain ProxyConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = ProxyConfig(p)
	c.Extra = nil

	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		if proxyConfigKeys[key.String()] {
			return true
		}
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[key.String()] = compactRaw([]byte(value.Raw))
		return true
	})

	for i := range c.Providers {
		c.Providers[i].Transformer = compactRaw(c.Providers[i].Transformer)
	}
	for i := range c.Transformers {
		c.Transformers[i] = compactRaw(c.Transformers[i])
	}
	return nil
}

func compactRaw(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(pretty.Ugly(raw))
}

// EscapePathKey escapes a literal object key for use in a gjson/sjson path.
func EscapePathKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
