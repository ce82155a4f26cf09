package services

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"

	"ccode/pkg/ccodetypes"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// readFileIfExists returns the file contents, or exists=false when the file is absent.
func readFileIfExists(path string) (data []byte, exists bool, err error) {
	data, err = os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ccodetypes.IOFailure("read", path, err)
	}
	return data, true, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// writeFileAtomic writes data to a uniquely named sibling temp file and renames
// it over path, so readers only ever observe the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return ccodetypes.IOFailure("create directory", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return ccodetypes.IOFailure("write", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return ccodetypes.IOFailure("rename", path, err)
	}
	return nil
}

func writeAndSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// formatJSON indents a JSON document for writing, preserving key order.
func formatJSON(data []byte) []byte {
	return pretty.PrettyOptions(data, &pretty.Options{Width: 80, Indent: "  "})
}

// isFormatted reports whether data is already laid out exactly as formatJSON writes it.
func isFormatted(data []byte) bool {
	return bytes.Equal(formatJSON(data), data)
}
