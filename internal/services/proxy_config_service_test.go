package services

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"ccode/internal/testutils"
	"ccode/pkg/ccodetypes"
)

// handEdited contains keys and route entries the service does not model.
const handEdited = `{
  "APIKEY": "proxy-secret",
  "LOG": false,
  "API_TIMEOUT_MS": 1234,
  "HOST": "127.0.0.1",
  "StatusLine": {"enabled": true},
  "Providers": [
    {"name": "acme", "api_base_url": "https://acme.example.com/v1/chat/completions", "api_key": "k1", "models": ["m1", "m2"]},
    {"name": "beta", "api_base_url": "https://beta.example.com/v1/chat/completions", "api_key": "k2", "models": ["b1"], "transformer": {"use": ["deepseek"]}}
  ],
  "Router": {"default": "acme,m1", "think": "beta,b1", "image": "acme,m2"},
  "transformers": [{"path": "/tmp/t.js"}]
}`

func compactNode(t *testing.T, data []byte, path string) string {
	t.Helper()
	result := gjson.GetBytes(data, path)
	require.True(t, result.Exists(), "missing %s", path)
	return string(pretty.Ugly([]byte(result.Raw)))
}

func TestProxyConfigService_Basic(t *testing.T) {
	service := NewProxyConfigService("/nonexistent/config.json", nil)
	assert.Equal(t, "proxy_config", service.Name())
	assert.Error(t, service.Initialize())

	_, err := service.Load()
	assert.EqualError(t, err, "proxy config service not initialized")
}

func TestProxyConfigService_Load_Missing(t *testing.T) {
	env := newTestEnv(t)

	assert.False(t, env.proxy.ConfigExists())
	doc, err := env.proxy.Load()
	require.NoError(t, err)

	assert.Empty(t, doc.Providers)
	assert.Equal(t, ccodetypes.PlaceholderRoute, doc.Router.Default)
	assert.NoFileExists(t, env.proxyPath)
}

func TestProxyConfigService_Load_Malformed(t *testing.T) {
	tests := map[string]string{
		"invalid json":   `{"Providers": [`,
		"not an object":  `[1, 2]`,
		"wrong provider": `{"Providers": {"name": "x"}}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			testutils.WriteFile(t, env.proxyPath, content)

			_, err := env.proxy.Load()
			assert.ErrorIs(t, err, ccodetypes.ErrMalformedDocument)
		})
	}
}

func TestProxyConfigService_SaveLoadRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	var doc ccodetypes.ProxyConfig
	require.NoError(t, json.Unmarshal([]byte(handEdited), &doc))

	require.NoError(t, env.proxy.Save(&doc))
	loaded, err := env.proxy.Load()
	require.NoError(t, err)

	if diff := cmp.Diff(&doc, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
	assert.Equal(t, 0, env.backupCount(t), "first write has nothing to back up")
}

func TestProxyConfigService_Save_BacksUpExistingFile(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	doc, err := env.proxy.Load()
	require.NoError(t, err)
	doc.Host = "0.0.0.0"
	require.NoError(t, env.proxy.Save(doc))

	backups, err := env.backup.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, handEdited, string(testutils.ReadFile(t, env.backupDir+"/"+backups[0].Name)))
	assert.Equal(t, "0.0.0.0", gjson.GetBytes(testutils.ReadFile(t, env.proxyPath), "HOST").String())
}

func TestProxyConfigService_Save_RejectsDanglingReference(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	doc := &ccodetypes.ProxyConfig{
		Providers: []ccodetypes.Provider{},
		Router:    ccodetypes.NewRouteSet("ghost,m1"),
	}
	err := env.proxy.Save(doc)

	assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "ghost")
	assert.Equal(t, handEdited, string(testutils.ReadFile(t, env.proxyPath)))
	assert.Equal(t, 0, env.backupCount(t))
}

func TestProxyConfigService_Save_RejectsInvalidProvider(t *testing.T) {
	env := newTestEnv(t)

	bad := testutils.NewProvider("acme")
	bad.APIBaseURL = "acme.example.com"
	err := env.proxy.Save(testutils.NewProxyConfig(bad))

	assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)
	assert.NoFileExists(t, env.proxyPath)
}

func TestProxyConfigService_UpdateRouterOnly_Isolation(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)
	before := testutils.ReadFile(t, env.proxyPath)

	rs := testutils.NewRouteSet("beta,b1", map[string]string{ccodetypes.RouteBackground: "acme,m2"})
	require.NoError(t, env.proxy.UpdateRouterOnly(rs))

	after := testutils.ReadFile(t, env.proxyPath)
	for _, path := range []string{"APIKEY", "LOG", "API_TIMEOUT_MS", "HOST", "StatusLine", "Providers", "transformers"} {
		assert.Equal(t, compactNode(t, before, path), compactNode(t, after, path), path)
	}

	router := gjson.GetBytes(after, "Router")
	assert.Equal(t, "beta,b1", router.Get("default").String())
	assert.Equal(t, "acme,m2", router.Get("background").String())
	assert.False(t, router.Get("think").Exists(), "blank optional route is removed")
	assert.Equal(t, "acme,m2", router.Get("image").String(), "unmodelled route key is kept")
	assert.Equal(t, int64(ccodetypes.DefaultLongContextThreshold), router.Get("longContextThreshold").Int())

	assert.Equal(t, 1, env.backupCount(t))
}

func TestProxyConfigService_UpdateRouterOnly_Rejects(t *testing.T) {
	tests := []struct {
		name string
		rs   ccodetypes.RouteSet
	}{
		{name: "dangling default", rs: ccodetypes.NewRouteSet("ghost,m1")},
		{name: "dangling optional", rs: testutils.NewRouteSet("acme,m1", map[string]string{ccodetypes.RouteWebSearch: "ghost,m1:online"})},
		{name: "malformed route", rs: ccodetypes.NewRouteSet("acme")},
		{name: "empty default", rs: ccodetypes.RouteSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			testutils.WriteFile(t, env.proxyPath, handEdited)

			err := env.proxy.UpdateRouterOnly(tt.rs)
			assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)
			assert.Equal(t, handEdited, string(testutils.ReadFile(t, env.proxyPath)))
			assert.Equal(t, 0, env.backupCount(t))
		})
	}
}

func TestProxyConfigService_UpdateProviderOnly_Add(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)
	before := testutils.ReadFile(t, env.proxyPath)

	gamma := ccodetypes.NewProvider("gamma", "", "k3", nil, ccodetypes.ProviderKindDeepSeek)
	require.NoError(t, env.proxy.UpdateProviderOnly(gamma, ProviderAdd))

	after := testutils.ReadFile(t, env.proxyPath)
	for _, path := range []string{"Router", "StatusLine", "LOG", "Providers.0", "Providers.1", "transformers"} {
		assert.Equal(t, compactNode(t, before, path), compactNode(t, after, path), path)
	}

	got, err := env.proxy.GetProvider("gamma")
	require.NoError(t, err)
	assert.Equal(t, gamma, got)
	assert.Equal(t, int64(3), gjson.GetBytes(after, "Providers.#").Int())
	assert.Equal(t, 1, env.backupCount(t))
}

func TestProxyConfigService_UpdateProviderOnly_AddExisting(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	err := env.proxy.UpdateProviderOnly(testutils.NewProvider("acme"), ProviderAdd)

	assert.ErrorIs(t, err, ccodetypes.ErrAlreadyExists)
	assert.Equal(t, "provider 'acme' already exists", err.Error())
	assert.Equal(t, handEdited, string(testutils.ReadFile(t, env.proxyPath)))
	assert.Equal(t, 0, env.backupCount(t))
}

func TestProxyConfigService_UpdateProviderOnly_AddToMissingFile(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.proxy.UpdateProviderOnly(testutils.NewProvider("acme", "m1", "m2"), ProviderAdd))

	doc, err := env.proxy.Load()
	require.NoError(t, err)
	require.Len(t, doc.Providers, 1)
	assert.Equal(t, ccodetypes.PlaceholderRoute, doc.Router.Default)
	assert.False(t, doc.Router.HasDefault())
	require.NotNil(t, doc.Log)
	assert.True(t, *doc.Log)
	assert.Equal(t, 0, env.backupCount(t))

	problems, err := env.proxy.ValidateCrossReferences()
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "provider", problems[0].Provider)
}

func TestProxyConfigService_UpdateProviderOnly_AddLeavesRouterUntouched(t *testing.T) {
	tests := []struct {
		name   string
		router string
	}{
		{name: "no default", router: `{"think": "acme,m1"}`},
		{name: "blank default", router: `{"default": "", "think": "acme,m1"}`},
		{name: "placeholder default", router: `{"default": "provider,model"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			testutils.WriteFile(t, env.proxyPath, `{
  "Providers": [
    {"name": "acme", "api_base_url": "https://acme.example.com/v1/chat/completions", "api_key": "k1", "models": ["m1"]}
  ],
  "Router": `+tt.router+`
}`)
			before := testutils.ReadFile(t, env.proxyPath)

			require.NoError(t, env.proxy.UpdateProviderOnly(testutils.NewProvider("beta", "b1"), ProviderAdd))

			after := testutils.ReadFile(t, env.proxyPath)
			assert.Equal(t, compactNode(t, before, "Router"), compactNode(t, after, "Router"))
			assert.Equal(t, "beta", gjson.GetBytes(after, "Providers.1.name").String())
		})
	}
}

func TestProxyConfigService_UpdateProviderOnly_Update(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)
	before := testutils.ReadFile(t, env.proxyPath)

	updated := testutils.NewProvider("beta", "b1", "b2")
	require.NoError(t, env.proxy.UpdateProviderOnly(updated, ProviderUpdate))

	after := testutils.ReadFile(t, env.proxyPath)
	assert.Equal(t, compactNode(t, before, "Providers.0"), compactNode(t, after, "Providers.0"))
	assert.Equal(t, compactNode(t, before, "Router"), compactNode(t, after, "Router"))

	got, err := env.proxy.GetProvider("beta")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Nil(t, got.Transformer)
}

func TestProxyConfigService_UpdateProviderOnly_UpdateMissing(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	err := env.proxy.UpdateProviderOnly(testutils.NewProvider("ghost"), ProviderUpdate)
	assert.ErrorIs(t, err, ccodetypes.ErrNotFound)
	assert.Equal(t, 0, env.backupCount(t))
}

func TestProxyConfigService_UpdateProviderOnly_InvalidProvider(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	tests := []struct {
		name    string
		op      ProviderOp
		target  string
		wantErr error
	}{
		{name: "add new name", op: ProviderAdd, target: "gamma", wantErr: ccodetypes.ErrInvalidConfig},
		{name: "add existing name", op: ProviderAdd, target: "acme", wantErr: ccodetypes.ErrAlreadyExists},
		{name: "update existing name", op: ProviderUpdate, target: "acme", wantErr: ccodetypes.ErrInvalidConfig},
		{name: "update missing name", op: ProviderUpdate, target: "ghost", wantErr: ccodetypes.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := testutils.NewProvider(tt.target)
			bad.Models = nil

			err := env.proxy.UpdateProviderOnly(bad, tt.op)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, handEdited, string(testutils.ReadFile(t, env.proxyPath)))
	assert.Equal(t, 0, env.backupCount(t))
}

func TestProxyConfigService_UpdateProviderOnly_Remove(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)
	before := testutils.ReadFile(t, env.proxyPath)

	// only the name is needed; beta is still referenced by the think route
	require.NoError(t, env.proxy.UpdateProviderOnly(ccodetypes.Provider{Name: "beta"}, ProviderRemove))

	after := testutils.ReadFile(t, env.proxyPath)
	assert.Equal(t, compactNode(t, before, "Router"), compactNode(t, after, "Router"))
	assert.Equal(t, compactNode(t, before, "Providers.0"), compactNode(t, after, "Providers.0"))
	assert.Equal(t, int64(1), gjson.GetBytes(after, "Providers.#").Int())

	exists, err := env.proxy.ProviderExists("beta")
	require.NoError(t, err)
	assert.False(t, exists)

	problems, err := env.proxy.ValidateCrossReferences()
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, ccodetypes.RouteThink, problems[0].RouteKey)
	assert.Equal(t, "beta", problems[0].Provider)
}

func TestProxyConfigService_UpdateProviderOnly_RemoveMissing(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	err := env.proxy.UpdateProviderOnly(ccodetypes.Provider{Name: "ghost"}, ProviderRemove)
	assert.ErrorIs(t, err, ccodetypes.ErrNotFound)

	err = env.proxy.UpdateProviderOnly(ccodetypes.Provider{}, ProviderRemove)
	assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)

	assert.Equal(t, handEdited, string(testutils.ReadFile(t, env.proxyPath)))
	assert.Equal(t, 0, env.backupCount(t))
}

func TestProxyConfigService_BackupMonotonicity(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	writes := []func() error{
		func() error { return env.proxy.UpdateProviderOnly(testutils.NewProvider("gamma"), ProviderAdd) },
		func() error { return env.proxy.UpdateRouterOnly(ccodetypes.NewRouteSet("gamma,m1")) },
		func() error {
			return env.proxy.UpdateProviderOnly(ccodetypes.Provider{Name: "beta"}, ProviderRemove)
		},
		func() error {
			host := "localhost"
			return env.proxy.SetBasicOptions(BasicOptions{Host: &host})
		},
		func() error {
			doc, err := env.proxy.Load()
			if err != nil {
				return err
			}
			return env.proxy.Save(doc)
		},
	}

	for i, write := range writes {
		require.NoError(t, write())
		backups, err := env.backup.ListBackups()
		require.NoError(t, err)
		assert.Len(t, backups, i+1)
	}

	backups, err := env.backup.ListBackups()
	require.NoError(t, err)
	for i := 1; i < len(backups); i++ {
		assert.Greater(t, backups[i-1].Name, backups[i].Name)
	}
}

func TestProxyConfigService_AutoCleanup(t *testing.T) {
	env := newTestEnv(t)
	env.proxy.SetRetention(2, true)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	for i := 0; i < 4; i++ {
		host := []string{"a", "b", "c", "d"}[i]
		require.NoError(t, env.proxy.SetBasicOptions(BasicOptions{Host: &host}))
	}

	backups, err := env.backup.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "config_backup_20250101_000003.json", backups[0].Name)
}

func TestProxyConfigService_SetBasicOptions(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)
	before := testutils.ReadFile(t, env.proxyPath)

	logOn := true
	timeout := 90000
	empty := ""
	require.NoError(t, env.proxy.SetBasicOptions(BasicOptions{
		Log:          &logOn,
		APITimeoutMS: &timeout,
		APIKey:       &empty,
	}))

	after := testutils.ReadFile(t, env.proxyPath)
	assert.True(t, gjson.GetBytes(after, "LOG").Bool())
	assert.Equal(t, int64(90000), gjson.GetBytes(after, "API_TIMEOUT_MS").Int())
	assert.False(t, gjson.GetBytes(after, "APIKEY").Exists())
	assert.Equal(t, "127.0.0.1", gjson.GetBytes(after, "HOST").String())
	for _, path := range []string{"Providers", "Router", "StatusLine"} {
		assert.Equal(t, compactNode(t, before, path), compactNode(t, after, path), path)
	}
}

func TestProxyConfigService_PatchKeepsLayout(t *testing.T) {
	tests := map[string]struct {
		content   string
		formatted bool
	}{
		"hand formatted": {content: handEdited},
		"own format":     {content: string(formatJSON([]byte(handEdited))), formatted: true},
		"missing file":   {formatted: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.content != "" {
				testutils.WriteFile(t, env.proxyPath, tt.content)
			}

			logOn := true
			require.NoError(t, env.proxy.SetBasicOptions(BasicOptions{Log: &logOn}))

			after := testutils.ReadFile(t, env.proxyPath)
			assert.True(t, gjson.GetBytes(after, "LOG").Bool())
			assert.Equal(t, tt.formatted, isFormatted(after))
			if tt.content == "" {
				return
			}
			for _, path := range []string{"Providers", "Router", "StatusLine", "transformers"} {
				assert.Equal(t, gjson.Get(tt.content, path).Raw, gjson.GetBytes(after, path).Raw, path)
			}
		})
	}
}

func TestProxyConfigService_SetBasicOptions_Invalid(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	zero := 0
	err := env.proxy.SetBasicOptions(BasicOptions{APITimeoutMS: &zero})
	assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)

	proxyURL := "localhost:7890"
	err = env.proxy.SetBasicOptions(BasicOptions{ProxyURL: &proxyURL})
	assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)

	require.NoError(t, env.proxy.SetBasicOptions(BasicOptions{}))
	assert.Equal(t, handEdited, string(testutils.ReadFile(t, env.proxyPath)))
	assert.Equal(t, 0, env.backupCount(t))
}

func TestProxyConfigService_ApplyRouterProfile(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	err := env.proxy.ApplyRouterProfile(ccodetypes.RouterProfile{Name: "broken", RouteSet: ccodetypes.NewRouteSet("ghost,x")})
	assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "router profile 'broken'")

	require.NoError(t, env.proxy.ApplyRouterProfile(ccodetypes.RouterProfile{Name: "fast", RouteSet: ccodetypes.NewRouteSet("beta,b1")}))
	rs, err := env.proxy.CurrentRouteSet()
	require.NoError(t, err)
	assert.Equal(t, "beta,b1", rs.Default)
}

func TestProxyConfigService_ReadOnlyQueries(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, handEdited)

	providers, err := env.proxy.ListProviders()
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "acme", providers[0].Name)
	assert.Equal(t, `{"use":["deepseek"]}`, string(providers[1].Transformer))

	_, err = env.proxy.GetProvider("ghost")
	assert.ErrorIs(t, err, ccodetypes.ErrNotFound)

	exists, err := env.proxy.ProviderExists("acme")
	require.NoError(t, err)
	assert.True(t, exists)

	stats, err := env.proxy.Stats()
	require.NoError(t, err)
	assert.Equal(t, ProxyStats{
		Exists:               true,
		ProviderCount:        2,
		ModelCount:           3,
		DefaultRoute:         "acme,m1",
		HasThink:             true,
		LongContextThreshold: ccodetypes.DefaultLongContextThreshold,
		APITimeoutMS:         stats.APITimeoutMS,
		LogEnabled:           false,
	}, stats)
	require.NotNil(t, stats.APITimeoutMS)
	assert.Equal(t, 1234, *stats.APITimeoutMS)

	info, err := os.Stat(env.proxyPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(handEdited)), info.Size(), "queries never write")
}

func TestProviderOp_String(t *testing.T) {
	assert.Equal(t, "add", ProviderAdd.String())
	assert.Equal(t, "update", ProviderUpdate.String())
	assert.Equal(t, "remove", ProviderRemove.String())
	assert.Equal(t, "ProviderOp(9)", ProviderOp(9).String())
}
