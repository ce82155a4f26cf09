package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ccode/internal/testutils"
)

// testEnv wires the file-backed services against a temporary directory.
type testEnv struct {
	dir       string
	storePath string
	proxyPath string
	backupDir string
	clock     *testutils.SequentialClock
	backup    *BackupService
	proxy     *ProxyConfigService
	store     *ProfileStoreService
	bootstrap *BootstrapService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:       dir,
		storePath: filepath.Join(dir, "ccode", "config.json"),
		proxyPath: filepath.Join(dir, "router", "config.json"),
		backupDir: filepath.Join(dir, "router", "backups"),
		clock:     testutils.NewSequentialClock(),
	}

	env.backup = NewBackupService(env.proxyPath, env.backupDir)
	env.backup.SetClock(env.clock.Now)
	require.NoError(t, env.backup.Initialize())

	env.proxy = NewProxyConfigService(env.proxyPath, env.backup)
	require.NoError(t, env.proxy.Initialize())

	env.store = NewProfileStoreService(env.storePath)
	require.NoError(t, env.store.Initialize())

	env.bootstrap = NewBootstrapService(env.store, env.proxy)
	env.bootstrap.SetClock(env.clock.Now)
	require.NoError(t, env.bootstrap.Initialize())

	return env
}

func (e *testEnv) backupCount(t *testing.T) int {
	t.Helper()
	return testutils.CountFiles(t, e.backupDir)
}
