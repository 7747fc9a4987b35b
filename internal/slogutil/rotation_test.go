package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingFile_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	rf, err := OpenRotatingFile(path, 100, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	defer rf.Close()

	for i := 0; i < 5; i++ {
		if _, err := rf.Write([]byte("hello world\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
	if info.Size() != 60 {
		t.Errorf("size = %d, want 60", info.Size())
	}
	if _, err := os.Stat(path + ".1"); err == nil {
		t.Error("no rotation expected below maxSize")
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	line := append(bytes.Repeat([]byte{'a'}, 29), '\n')
	for i := 0; i < 5; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("%s should exist: %v", filepath.Base(p), err)
			continue
		}
		if info.Size() != 30 {
			t.Errorf("%s size = %d, want 30", filepath.Base(p), info.Size())
		}
	}
	if _, err := os.Stat(path + ".3"); err == nil {
		t.Error("only two backups should be kept")
	}
}

func TestRotatingFile_NoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	rf, err := OpenRotatingFile(path, 10, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	defer rf.Close()

	rf.Write([]byte("first line\n"))
	rf.Write([]byte("second\n"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second\n" {
		t.Errorf("content = %q, want %q", data, "second\n")
	}
	if _, err := os.Stat(path + ".1"); err == nil {
		t.Error("no backup expected with maxBackups 0")
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := OpenRotatingFile(filepath.Join(t.TempDir(), "test.log"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	rf.Close()
	if _, err := rf.Write([]byte("x")); err == nil {
		t.Error("expected error writing to closed file")
	}
	if err := rf.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
}

func TestNewFileLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()

	logger, closer, err := NewFileLoggerWithRotation(filepath.Join(dir, "a", "test.log"), slog.LevelDebug, 1<<20, 3)
	if err != nil {
		t.Fatalf("NewFileLoggerWithRotation failed: %v", err)
	}
	defer closer.Close()
	if _, ok := closer.(*RotatingFile); !ok {
		t.Errorf("closer = %T, want *RotatingFile", closer)
	}
	logger.Info("hello")

	logger2, closer2, err := NewFileLoggerWithRotation(filepath.Join(dir, "b", "test.log"), slog.LevelDebug, 0, 3)
	if err != nil {
		t.Fatalf("NewFileLoggerWithRotation without rotation failed: %v", err)
	}
	defer closer2.Close()
	if _, ok := closer2.(*os.File); !ok {
		t.Errorf("closer = %T, want *os.File", closer2)
	}
	if logger2 == nil {
		t.Error("logger should not be nil")
	}
}
