package services

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"ccode/internal/logger"
	"ccode/internal/testutils"
	"ccode/pkg/ccodetypes"
)

func TestBootstrapService_Basic(t *testing.T) {
	service := NewBootstrapService(nil, nil)
	assert.Equal(t, "bootstrap", service.Name())
	assert.Error(t, service.Initialize())

	_, err := service.EnsureRouterProfile()
	assert.EqualError(t, err, "bootstrap service not initialized")
}

func TestBootstrapStatus_String(t *testing.T) {
	assert.Equal(t, "local profile exists", StatusLocalExists.String())
	assert.Equal(t, "generated default profile", StatusGeneratedDefault.String())
	assert.Equal(t, "need to create a provider", StatusNeedCreateProvider.String())
	assert.Equal(t, "BootstrapStatus(7)", BootstrapStatus(7).String())
}

func TestBootstrapService_ResolveDefaultProfile_Generates(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteProxyConfig(t, env.proxyPath, testutils.NewProxyConfig(testutils.NewProvider("acme", "m1", "m2")))
	proxyBefore := testutils.ReadFile(t, env.proxyPath)

	profile, err := env.bootstrap.ResolveDefaultProfile(ccodetypes.DefaultRouterProfileName)
	require.NoError(t, err)

	assert.Equal(t, ccodetypes.DefaultRouterProfileName, profile.Name)
	assert.Equal(t, "acme,m1", profile.RouteSet.Default)
	assert.Equal(t, GeneratedProfileDescription, profile.Description)
	assert.Equal(t, "2025-01-01T00:00:00Z", profile.CreatedAt)
	assert.Equal(t, ccodetypes.DefaultRouterProfileName, env.store.Router().DefaultName())

	data := testutils.ReadFile(t, env.storePath)
	assert.Equal(t, "acme,m1", gjson.GetBytes(data, "groups.router.default.router.default").String())
	assert.Equal(t, proxyBefore, testutils.ReadFile(t, env.proxyPath), "bootstrap never writes the proxy config")
	assert.Equal(t, 0, env.backupCount(t))

	status, err := env.bootstrap.EnsureRouterProfile()
	require.NoError(t, err)
	assert.Equal(t, StatusLocalExists, status)

	again, err := env.bootstrap.ResolveDefaultProfile(ccodetypes.DefaultRouterProfileName)
	require.NoError(t, err)
	assert.Equal(t, profile, again)
}

func TestBootstrapService_EnsureRouterProfile(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, env *testEnv)
		wantStatus BootstrapStatus
		wantStored int
	}{
		{
			name:       "missing proxy config",
			setup:      func(t *testing.T, env *testEnv) {},
			wantStatus: StatusNeedCreateProvider,
		},
		{
			name: "proxy config without providers",
			setup: func(t *testing.T, env *testEnv) {
				testutils.WriteProxyConfig(t, env.proxyPath, ccodetypes.NewProxyConfig())
			},
			wantStatus: StatusNeedCreateProvider,
		},
		{
			name: "proxy config with providers",
			setup: func(t *testing.T, env *testEnv) {
				testutils.WriteProxyConfig(t, env.proxyPath, testutils.NewProxyConfig(testutils.NewProvider("acme")))
			},
			wantStatus: StatusGeneratedDefault,
			wantStored: 1,
		},
		{
			name: "local profile already present",
			setup: func(t *testing.T, env *testEnv) {
				testutils.WriteProxyConfig(t, env.proxyPath, testutils.NewProxyConfig(testutils.NewProvider("acme")))
				require.NoError(t, env.store.Router().Add("mine", ccodetypes.RouterProfile{RouteSet: ccodetypes.NewRouteSet("acme,m2")}))
			},
			wantStatus: StatusLocalExists,
			wantStored: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(t, env)

			status, err := env.bootstrap.EnsureRouterProfile()
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantStored, env.store.Router().Len())
		})
	}
}

func TestBootstrapService_ResolveDefaultProfile_NeedProvider(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.bootstrap.ResolveDefaultProfile(ccodetypes.DefaultRouterProfileName)
	assert.ErrorIs(t, err, ccodetypes.ErrNotFound)
	assert.Contains(t, err.Error(), "ccode provider add")
	assert.NoFileExists(t, env.storePath)
}

func TestBootstrapService_ResolveDefaultProfile_OtherName(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteProxyConfig(t, env.proxyPath, testutils.NewProxyConfig(testutils.NewProvider("acme")))

	_, err := env.bootstrap.ResolveDefaultProfile("fast")
	assert.ErrorIs(t, err, ccodetypes.ErrNotFound)
	assert.EqualError(t, err, "router profile 'fast' not found")
	assert.Zero(t, env.store.Router().Len(), "only the default name triggers generation")
}

func TestBootstrapService_ResolveDefaultProfile_Existing(t *testing.T) {
	env := newTestEnv(t)
	stored := ccodetypes.RouterProfile{Name: "default", RouteSet: ccodetypes.NewRouteSet("acme,m2"), Description: "hand made"}
	require.NoError(t, env.store.Router().Add("default", stored))

	profile, err := env.bootstrap.ResolveDefaultProfile("default")
	require.NoError(t, err)
	assert.Equal(t, stored, profile)
}

func TestBootstrapService_DanglingReferencesAreNotFatal(t *testing.T) {
	env := newTestEnv(t)
	doc := testutils.NewProxyConfig(testutils.NewProvider("acme"))
	doc.Router.Think = "ghost,r1"
	testutils.WriteProxyConfig(t, env.proxyPath, doc)

	profile, ok, err := env.bootstrap.GenerateDefaultRouterProfile()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ghost,r1", profile.RouteSet.Think)
	assert.Zero(t, env.store.Router().Len(), "generation alone does not store")
}

func TestBootstrapService_MissingDefaultRouteReportedOnce(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, `{
  "Providers": [
    {"name": "acme", "api_base_url": "https://acme.example.com/v1/chat/completions", "api_key": "k1", "models": ["m1"]}
  ],
  "Router": {"think": "acme,m1"}
}`)

	status, err := env.bootstrap.EnsureRouterProfile()
	assert.ErrorIs(t, err, ccodetypes.ErrInvalidConfig)
	assert.Equal(t, StatusNeedCreateProvider, status)
	assert.Zero(t, env.store.Router().Len())
	assert.NotContains(t, logs.String(), "unknown provider")
}

func TestBootstrapService_MalformedProxyConfig(t *testing.T) {
	env := newTestEnv(t)
	testutils.WriteFile(t, env.proxyPath, "not json")

	status, err := env.bootstrap.EnsureRouterProfile()
	assert.ErrorIs(t, err, ccodetypes.ErrMalformedDocument)
	assert.Equal(t, StatusNeedCreateProvider, status)
}
