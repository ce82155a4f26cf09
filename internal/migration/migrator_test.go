package migration

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccode/internal/version"
	"ccode/pkg/ccodetypes"
)

const legacyFlatStore = `{
  "default": "work",
  "profiles": {
    "work": {
      "ANTHROPIC_AUTH_TOKEN": "sk-work",
      "ANTHROPIC_BASE_URL": "https://api.work.example",
      "description": "work account"
    },
    "home": {
      "ANTHROPIC_AUTH_TOKEN": "sk-home",
      "ANTHROPIC_BASE_URL": "https://api.home.example"
    }
  }
}`

const partiallyUpgradedStore = `{
  "version": "1.0",
  "default": "home",
  "default_profile": { "direct": "work" },
  "groups": {
    "direct": {
      "work": { "ANTHROPIC_AUTH_TOKEN": "sk-new", "ANTHROPIC_BASE_URL": "https://api.work.example" }
    },
    "router": {
      "fast": { "router": { "default": "acme,m1" } }
    }
  },
  "profiles": {
    "home": { "ANTHROPIC_AUTH_TOKEN": "sk-home", "ANTHROPIC_BASE_URL": "https://api.home.example" },
    "work": { "ANTHROPIC_AUTH_TOKEN": "sk-old", "ANTHROPIC_BASE_URL": "https://api.work.example" }
  }
}`

func decode(t *testing.T, raw string) *ccodetypes.StoreDocument {
	t.Helper()
	var doc ccodetypes.StoreDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return &doc
}

func TestMigrate_LegacyFlatStore(t *testing.T) {
	doc := decode(t, legacyFlatStore)

	migrated, err := Migrate(doc)
	require.NoError(t, err)

	assert.Equal(t, version.StoreSchemaVersion, migrated.Version)
	assert.Equal(t, ccodetypes.GroupDirect, migrated.DefaultGroup)
	assert.Equal(t, "work", migrated.Defaults.Direct)
	assert.Empty(t, migrated.Defaults.Router)
	assert.Len(t, migrated.Groups.Direct, 2)
	assert.Equal(t, "work account", migrated.Groups.Direct["work"].Description)
	assert.NotNil(t, migrated.Groups.Router)
	assert.Nil(t, migrated.LegacyDefault)
	assert.Nil(t, migrated.LegacyProfiles)
}

func TestMigrate_DoesNotModifyInput(t *testing.T) {
	doc := decode(t, legacyFlatStore)

	_, err := Migrate(doc)
	require.NoError(t, err)

	require.NotNil(t, doc.LegacyDefault)
	assert.Equal(t, "work", *doc.LegacyDefault)
	assert.Len(t, doc.LegacyProfiles, 2)
	assert.Nil(t, doc.Groups.Direct)
}

func TestMigrate_PartiallyUpgraded(t *testing.T) {
	migrated, err := Migrate(decode(t, partiallyUpgradedStore))
	require.NoError(t, err)

	// current default wins over the legacy one
	assert.Equal(t, "work", migrated.Defaults.Direct)
	// legacy entries overwrite same-named grouped entries
	assert.Equal(t, "sk-old", migrated.Groups.Direct["work"].AuthToken)
	assert.Contains(t, migrated.Groups.Direct, "home")
	assert.Equal(t, "fast", migrated.Groups.Router["fast"].Name)
	assert.Nil(t, migrated.LegacyDefault)
	assert.Nil(t, migrated.LegacyProfiles)
}

func TestMigrate_ClearsDanglingDefaults(t *testing.T) {
	doc := ccodetypes.NewStoreDocument(version.StoreSchemaVersion)
	doc.Defaults = ccodetypes.DefaultProfile{Direct: "gone", Router: "also-gone"}

	migrated, err := Migrate(doc)
	require.NoError(t, err)
	assert.Empty(t, migrated.Defaults.Direct)
	assert.Empty(t, migrated.Defaults.Router)
}

func TestMigrate_LegacyDefaultWithoutProfile(t *testing.T) {
	migrated, err := Migrate(decode(t, `{"default": "nowhere"}`))
	require.NoError(t, err)
	assert.Empty(t, migrated.Defaults.Direct)
	assert.Empty(t, migrated.Groups.Direct)
}

func TestMigrate_Nil(t *testing.T) {
	migrated, err := Migrate(nil)
	require.NoError(t, err)
	assert.Equal(t, ccodetypes.NewStoreDocument(version.StoreSchemaVersion), migrated)
}

func TestMigrate_Versions(t *testing.T) {
	tests := []struct {
		name        string
		version     string
		expected    string
		expectError bool
	}{
		{name: "missing", version: "", expected: version.StoreSchemaVersion},
		{name: "unparsable", version: "v-old", expected: version.StoreSchemaVersion},
		{name: "current", version: "1.0", expected: "1.0"},
		{name: "newer minor kept", version: "1.3", expected: "1.3"},
		{name: "newer major rejected", version: "2.0", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ccodetypes.NewStoreDocument(tt.version)

			migrated, err := Migrate(doc)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrSchemaTooNew)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, migrated.Version)
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	fixtures := map[string]string{
		"legacy flat":        legacyFlatStore,
		"partially upgraded": partiallyUpgradedStore,
		"empty object":       `{}`,
		"current":            `{"version":"1.0","default_group":"router","default_profile":{"router":"fast"},"groups":{"direct":{},"router":{"fast":{"name":"fast","router":{"default":"a,b"}}}}}`,
	}

	for name, raw := range fixtures {
		t.Run(name, func(t *testing.T) {
			once, err := Migrate(decode(t, raw))
			require.NoError(t, err)

			twice, err := Migrate(once)
			require.NoError(t, err)

			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("second migration changed the document (-once +twice):\n%s", diff)
			}
			assert.False(t, NeedsMigration(once))
		})
	}
}

func TestNeedsMigration(t *testing.T) {
	assert.True(t, NeedsMigration(nil))
	assert.True(t, NeedsMigration(decode(t, legacyFlatStore)))
	assert.False(t, NeedsMigration(ccodetypes.NewStoreDocument(version.StoreSchemaVersion)))
}
