package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/pretty"

	"ccode/pkg/ccodetypes"
)

// NewProvider returns a valid provider without a kind, pointing at a chat completions URL.
func NewProvider(name string, models ...string) ccodetypes.Provider {
	if len(models) == 0 {
		models = []string{"m1", "m2"}
	}
	return ccodetypes.Provider{
		Name:       name,
		APIBaseURL: "https://" + name + ".example.com/v1/chat/completions",
		APIKey:     "sk-" + name,
		Models:     models,
	}
}

// NewRouteSet returns a route set with the given default and optional routes keyed by route key.
func NewRouteSet(defaultRoute string, optional map[string]string) ccodetypes.RouteSet {
	rs := ccodetypes.NewRouteSet(defaultRoute)
	for key, value := range optional {
		rs.Set(key, value)
	}
	return rs
}

// NewProxyConfig returns a valid proxy document for the providers, routing default to the first model of the first provider.
func NewProxyConfig(providers ...ccodetypes.Provider) *ccodetypes.ProxyConfig {
	doc := ccodetypes.NewProxyConfig()
	doc.Providers = append([]ccodetypes.Provider{}, providers...)
	if len(providers) > 0 {
		doc.Router = ccodetypes.NewRouteSet(providers[0].Name + "," + providers[0].Models[0])
	}
	return doc
}

// WriteProxyConfig writes doc to path as indented JSON.
func WriteProxyConfig(t *testing.T, path string, doc *ccodetypes.ProxyConfig) {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	WriteFile(t, path, string(pretty.Pretty(data)))
}

// WriteLegacyStore writes a flat, pre-group profile store document.
func WriteLegacyStore(t *testing.T, path string, defaultName string, profiles map[string]ccodetypes.DirectProfile) {
	t.Helper()
	legacy := map[string]any{"profiles": profiles}
	if defaultName != "" {
		legacy["default"] = defaultName
	}
	data, err := json.MarshalIndent(legacy, "", "  ")
	require.NoError(t, err)
	WriteFile(t, path, string(data))
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// CountFiles returns the number of regular files in dir, or zero when dir does not exist.
func CountFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			count++
		}
	}
	return count
}
