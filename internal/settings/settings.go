// Package settings resolves ccode's runtime settings: where the profile store
// and the proxy configuration live, backup retention, and logging options.
//
// Precedence follows viper: bound CLI flags, then CCODE_* environment
// variables (including values loaded from .env files), then defaults.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by ccode.
const EnvPrefix = "CCODE"

// Setting keys.
const (
	KeyConfigDir         = "config_dir"
	KeyRouterDir         = "router_dir"
	KeyBackupKeep        = "backup.keep"
	KeyBackupAutoCleanup = "backup.auto_cleanup"
	KeyLogLevel          = "log_level"
	KeyLogFile           = "log_file"
)

// DefaultBackupKeep is the number of proxy configuration backups retained by automatic cleanup.
const DefaultBackupKeep = 10

const (
	storeFileName       = "config.json"
	proxyConfigFileName = "config.json"
	backupDirName       = "backups"
	dotEnvFileName      = ".env"
)

// flagKeys maps CLI flag names to setting keys.
var flagKeys = map[string]string{
	"config-dir": KeyConfigDir,
	"router-dir": KeyRouterDir,
	"log-level":  KeyLogLevel,
	"log-file":   KeyLogFile,
}

// Settings wraps a dedicated viper instance so tests never share global state.
type Settings struct {
	v *viper.Viper
}

// New creates settings with defaults rooted at the user's home directory.
func New() (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return NewWithHome(home), nil
}

// NewWithHome creates settings with defaults rooted at home.
func NewWithHome(home string) *Settings {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyConfigDir, defaultConfigDir(home))
	v.SetDefault(KeyRouterDir, filepath.Join(home, ".claude-code-router"))
	v.SetDefault(KeyBackupKeep, DefaultBackupKeep)
	v.SetDefault(KeyBackupAutoCleanup, true)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")

	return &Settings{v: v}
}

func defaultConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccode")
	}
	return filepath.Join(home, ".config", "ccode")
}

// BindFlags binds the persistent CLI flags that override settings.
// Flags missing from the set are skipped.
func (s *Settings) BindFlags(flags *pflag.FlagSet) error {
	for flagName, key := range flagKeys {
		flag := flags.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := s.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
		}
	}
	return nil
}

// LoadDotEnv loads <config_dir>/.env and then ./.env into the process
// environment. Variables that are already set are never overridden, so the
// first file wins over the second. Missing files are skipped.
func (s *Settings) LoadDotEnv(workDir string) error {
	candidates := []string{
		filepath.Join(s.ConfigDir(), dotEnvFileName),
		filepath.Join(workDir, dotEnvFileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load .env file %s: %w", path, err)
		}
	}
	return nil
}

// Set overrides a setting for the lifetime of this instance.
func (s *Settings) Set(key string, value any) {
	s.v.Set(key, value)
}

// ConfigDir is the directory holding the profile store.
func (s *Settings) ConfigDir() string {
	return expandHome(s.v.GetString(KeyConfigDir))
}

// RouterDir is the directory holding the proxy configuration.
func (s *Settings) RouterDir() string {
	return expandHome(s.v.GetString(KeyRouterDir))
}

// StorePath is the profile store document path.
func (s *Settings) StorePath() string {
	return filepath.Join(s.ConfigDir(), storeFileName)
}

// ProxyConfigPath is the proxy configuration document path.
func (s *Settings) ProxyConfigPath() string {
	return filepath.Join(s.RouterDir(), proxyConfigFileName)
}

// BackupDir is the directory holding proxy configuration backups.
func (s *Settings) BackupDir() string {
	return filepath.Join(s.RouterDir(), backupDirName)
}

// BackupKeep is the retention count used by automatic cleanup. Values below one are raised to one.
func (s *Settings) BackupKeep() int {
	keep := s.v.GetInt(KeyBackupKeep)
	if keep < 1 {
		return 1
	}
	return keep
}

// AutoCleanup reports whether backups are pruned after each proxy configuration write.
func (s *Settings) AutoCleanup() bool {
	return s.v.GetBool(KeyBackupAutoCleanup)
}

// LogLevel is the configured log level, empty when unset.
func (s *Settings) LogLevel() string {
	return s.v.GetString(KeyLogLevel)
}

// LogFile is the configured log file, empty for stderr.
func (s *Settings) LogFile() string {
	return s.v.GetString(KeyLogFile)
}

// AllSettings returns the effective settings for display.
func (s *Settings) AllSettings() map[string]any {
	return map[string]any{
		KeyConfigDir:         s.ConfigDir(),
		KeyRouterDir:         s.RouterDir(),
		KeyBackupKeep:        s.BackupKeep(),
		KeyBackupAutoCleanup: s.AutoCleanup(),
		KeyLogLevel:          s.LogLevel(),
		KeyLogFile:           s.LogFile(),
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
