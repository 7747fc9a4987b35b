package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DataDirName is the per-project directory holding config, database and logs.
	DataDirName = ".hsplit"
	// DatabaseName is the sqlite file inside DataDirName.
	DatabaseName = "hsplit.db"
	// ConfigName is the config file inside DataDirName.
	ConfigName = "config.json"
	// LogsSubdir holds hsplit.log and its rotated backups.
	LogsSubdir = "logs"
	// LogName is the log file inside LogsSubdir.
	LogName = "hsplit.log"
	// DefaultIndexName is the JSON index written next to the data dir.
	DefaultIndexName = "usage.json"
)

// DataDir returns <root>/.hsplit.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// EnsureDataDir creates <root>/.hsplit if needed and returns it.
func EnsureDataDir(root string) (string, error) {
	dir := DataDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DatabasePath returns <root>/.hsplit/hsplit.db.
func DatabasePath(root string) string {
	return filepath.Join(DataDir(root), DatabaseName)
}

// ConfigPath returns <root>/.hsplit/config.json.
func ConfigPath(root string) string {
	return filepath.Join(DataDir(root), ConfigName)
}

// LogPath returns <root>/.hsplit/logs/hsplit.log.
func LogPath(root string) string {
	return filepath.Join(DataDir(root), LogsSubdir, LogName)
}

// DefaultIndexPath returns <root>/.hsplit/usage.json.
func DefaultIndexPath(root string) string {
	return filepath.Join(DataDir(root), DefaultIndexName)
}

// Resolve makes p absolute against dir. Absolute paths are only cleaned.
func Resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if dir == "" {
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}

// UnitID turns a source path into a translation unit id: the cleaned, slash-separated
// path with everything up to and including the last occurrence of marker removed.
// The path is returned whole when marker is empty or does not occur.
func UnitID(path, marker string) string {
	p := NormalizePath(filepath.Clean(path))
	if marker == "" {
		return p
	}
	if i := strings.LastIndex(p, marker); i >= 0 {
		return p[i+len(marker):]
	}
	return p
}

// CanonicalizePath converts an absolute path to a root-relative, slash-separated path.
// Symlinks are resolved when the files exist.
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = root
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithinRoot reports whether path lies under root.
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts OS separators to forward slashes.
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}
