package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sergi/go-diff/diffmatchpatch"

	"ccode/internal/logger"
	"ccode/pkg/ccodetypes"
)

const (
	backupPrefix     = "config_backup_"
	backupSuffix     = ".json"
	backupTimeLayout = "20060102_150405"
)

// BackupService captures and manages timestamped snapshots of the proxy configuration.
type BackupService struct {
	initialized bool
	sourcePath  string
	dir         string
	now         func() time.Time
	logger      *log.Logger
}

// NewBackupService creates a backup service for the file at sourcePath, storing snapshots in dir.
func NewBackupService(sourcePath, dir string) *BackupService {
	return &BackupService{
		sourcePath: sourcePath,
		dir:        dir,
		now:        time.Now,
		logger:     logger.NewStyledLogger("Backup"),
	}
}

// Name returns the service name "backup" for registration.
func (b *BackupService) Name() string {
	return "backup"
}

// Initialize marks the service ready. The backup directory is created lazily on the first backup.
func (b *BackupService) Initialize() error {
	b.initialized = true
	return nil
}

// SetClock replaces the time source used to name backups.
func (b *BackupService) SetClock(now func() time.Time) {
	b.now = now
}

// Dir returns the backup directory.
func (b *BackupService) Dir() string {
	return b.dir
}

// BackupName returns the file name of a backup captured at t.
func BackupName(t time.Time) string {
	return backupPrefix + t.UTC().Format(backupTimeLayout) + backupSuffix
}

// ParseBackupName extracts the capture time from a backup file name.
func ParseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
	t, err := time.ParseInLocation(backupTimeLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CreateBackup copies the current file into the backup directory and returns the backup name.
// Captures within the same second are moved to the next free second.
func (b *BackupService) CreateBackup() (string, error) {
	if !b.initialized {
		return "", fmt.Errorf("backup service not initialized")
	}

	data, exists, err := readFileIfExists(b.sourcePath)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ccodetypes.NothingToBackup(b.sourcePath)
	}

	if err := os.MkdirAll(b.dir, dirPerm); err != nil {
		return "", ccodetypes.IOFailure("create directory", b.dir, err)
	}

	captured := b.now().UTC().Truncate(time.Second)
	name := BackupName(captured)
	for fileExists(filepath.Join(b.dir, name)) {
		captured = captured.Add(time.Second)
		name = BackupName(captured)
	}

	if err := writeFileAtomic(filepath.Join(b.dir, name), data); err != nil {
		return "", err
	}

	b.logger.Debug("Backup created", "backup", name, "bytes", len(data))
	return name, nil
}

// ListBackups returns every backup, newest first. A missing backup directory yields an empty list.
func (b *BackupService) ListBackups() ([]ccodetypes.BackupEntry, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backup service not initialized")
	}

	dirEntries, err := os.ReadDir(b.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []ccodetypes.BackupEntry{}, nil
	}
	if err != nil {
		return nil, ccodetypes.IOFailure("list", b.dir, err)
	}

	backups := make([]ccodetypes.BackupEntry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		captured, ok := ParseBackupName(entry.Name())
		if !ok {
			continue
		}
		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		backups = append(backups, ccodetypes.BackupEntry{
			Name:       entry.Name(),
			CapturedAt: captured,
			Size:       size,
		})
	}

	// Fixed-width timestamps make lexical order chronological.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// Restore overwrites the current file with the named backup. The current file is
// first backed up on a best-effort basis; the name of that safety backup is
// returned, or "" when none was taken.
func (b *BackupService) Restore(name string) (string, error) {
	if !b.initialized {
		return "", fmt.Errorf("backup service not initialized")
	}

	path, err := b.backupPath(name)
	if err != nil {
		return "", err
	}

	data, exists, err := readFileIfExists(path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ccodetypes.NotFound("backup", name)
	}

	safety := ""
	if fileExists(b.sourcePath) {
		safety, err = b.CreateBackup()
		if err != nil {
			b.logger.Warn("Could not back up current configuration before restore", "error", err)
			safety = ""
		}
	}

	if err := writeFileAtomic(b.sourcePath, data); err != nil {
		return safety, err
	}

	b.logger.Info("Backup restored", "backup", name, "path", b.sourcePath)
	return safety, nil
}

// Delete removes the named backup.
func (b *BackupService) Delete(name string) error {
	if !b.initialized {
		return fmt.Errorf("backup service not initialized")
	}

	path, err := b.backupPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ccodetypes.NotFound("backup", name)
		}
		return ccodetypes.IOFailure("delete", path, err)
	}

	b.logger.Debug("Backup deleted", "backup", name)
	return nil
}

// Cleanup deletes all but the keep newest backups and returns how many were removed.
// Individual deletion failures are logged and skipped.
func (b *BackupService) Cleanup(keep int) (int, error) {
	if keep < 0 {
		return 0, ccodetypes.InvalidConfig("keep", "retention count must not be negative")
	}

	backups, err := b.ListBackups()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, entry := range backups[keep:] {
		path := filepath.Join(b.dir, entry.Name)
		if err := os.Remove(path); err != nil {
			b.logger.Warn("Failed to delete old backup", "backup", entry.Name, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		b.logger.Debug("Old backups removed", "removed", removed, "kept", keep)
	}
	return removed, nil
}

// Diff returns a line diff from the named backup to the current file.
// Removed lines are prefixed with "-", added lines with "+", unchanged lines with a space.
func (b *BackupService) Diff(name string) (string, error) {
	if !b.initialized {
		return "", fmt.Errorf("backup service not initialized")
	}

	path, err := b.backupPath(name)
	if err != nil {
		return "", err
	}

	before, exists, err := readFileIfExists(path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ccodetypes.NotFound("backup", name)
	}

	after, _, err := readFileIfExists(b.sourcePath)
	if err != nil {
		return "", err
	}

	return lineDiff(string(before), string(after)), nil
}

func (b *BackupService) backupPath(name string) (string, error) {
	if _, ok := ParseBackupName(name); !ok || filepath.Base(name) != name {
		return "", ccodetypes.NotFound("backup", name)
	}
	return filepath.Join(b.dir, name), nil
}

func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, c, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, c, false), lines)

	var out strings.Builder
	for _, diff := range diffs {
		marker := " "
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			marker = "-"
		case diffmatchpatch.DiffInsert:
			marker = "+"
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(marker)
			out.WriteString(strings.TrimSuffix(line, "\n"))
			out.WriteByte('\n')
		}
	}
	return out.String()
}
