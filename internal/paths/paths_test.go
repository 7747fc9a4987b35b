package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataLayout(t *testing.T) {
	root := "/work/proj"
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"data dir", DataDir(root), filepath.Join(root, ".hsplit")},
		{"database", DatabasePath(root), filepath.Join(root, ".hsplit", "hsplit.db")},
		{"config", ConfigPath(root), filepath.Join(root, ".hsplit", "config.json")},
		{"log", LogPath(root), filepath.Join(root, ".hsplit", "logs", "hsplit.log")},
		{"index", DefaultIndexPath(root), filepath.Join(root, ".hsplit", "usage.json")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, tt.got)
		}
	}
}

func TestEnsureDataDir(t *testing.T) {
	root := t.TempDir()
	dir, err := EnsureDataDir(root)
	if err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}

	// Second call is a no-op.
	if _, err := EnsureDataDir(root); err != nil {
		t.Errorf("EnsureDataDir second call failed: %v", err)
	}
}

func TestUnitID(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		marker string
		want   string
	}{
		{"strip prefix", "/home/u/proj/src/a.c", "proj/", "src/a.c"},
		{"last occurrence wins", "/proj/vendor/proj/src/a.c", "proj/", "src/a.c"},
		{"marker absent", "/other/src/a.c", "proj/", "/other/src/a.c"},
		{"empty marker", "/home/u/proj/src/a.c", "", "/home/u/proj/src/a.c"},
		{"cleaned", "/home/u/proj/src/../lib/./b.c", "proj/", "lib/b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnitID(tt.path, tt.marker); got != tt.want {
				t.Errorf("UnitID(%q, %q) = %q, want %q", tt.path, tt.marker, got, tt.want)
			}
		})
	}
}

func TestUnitID_SameFileSameID(t *testing.T) {
	a := UnitID(Resolve("/home/u/proj/build", "../src/a.c"), "proj/")
	b := UnitID(Resolve("/home/u/proj", "src/a.c"), "proj/")
	if a != b {
		t.Errorf("expected equal ids, got %q and %q", a, b)
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("/base", "/abs/x.c"); got != "/abs/x.c" {
		t.Errorf("Resolve kept absolute path wrong: %s", got)
	}
	if got := Resolve("/base/dir", "../x.c"); got != filepath.Join("/base", "x.c") {
		t.Errorf("Resolve relative: got %s", got)
	}
	if got := Resolve("", "x.c"); !filepath.IsAbs(got) {
		t.Errorf("Resolve without dir should be absolute, got %s", got)
	}
}

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "subdir", "test.h")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if err := os.WriteFile(file, []byte("int x;\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	canonical, err := CanonicalizePath(file, root)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if canonical != "subdir/test.h" {
		t.Errorf("Expected subdir/test.h, got %s", canonical)
	}
}

func TestIsWithinRoot(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "a.c")
	if err := os.WriteFile(inside, nil, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !IsWithinRoot(inside, root) {
		t.Error("Expected file to be within root")
	}
	if IsWithinRoot(filepath.Join(filepath.Dir(root), "outside.c"), root) {
		t.Error("Expected file outside root to return false")
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath("path/to/file"); got != "path/to/file" {
		t.Errorf("NormalizePath: expected path/to/file, got %s", got)
	}
}
