// Package ccodetypes defines backup data structures for ccode.
package ccodetypes

import "time"

// BackupEntry describes one snapshot of the proxy configuration.
type BackupEntry struct {
	// Name is the file name, e.g. config_backup_20250101_120000.json
	Name string `json:"name"`

	// CapturedAt is parsed from the name's embedded timestamp (UTC)
	CapturedAt time.Time `json:"captured_at"`

	// Size is the file size in bytes
	Size int64 `json:"size"`
}
