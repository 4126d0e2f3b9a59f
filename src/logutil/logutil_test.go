package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	w, err := NewRotatingWriter(path, 16, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	for _, line := range []string{"first line\n", "second line\n", "third line\n", "fourth line\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	current, _ := os.ReadFile(path)
	if string(current) != "fourth line\n" {
		t.Errorf("unexpected current file %q", current)
	}
	first, _ := os.ReadFile(path + ".1")
	if string(first) != "third line\n" {
		t.Errorf("unexpected .1 archive %q", first)
	}
	second, _ := os.ReadFile(path + ".2")
	if string(second) != "second line\n" {
		t.Errorf("unexpected .2 archive %q", second)
	}
	if _, err := os.Stat(path + ".3"); err == nil {
		t.Error("archives beyond the limit must be dropped")
	}
}

func TestRotatingWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	for i := 0; i < 2; i++ {
		w, err := NewRotatingWriter(path, 1024, 1)
		if err != nil {
			t.Fatalf("NewRotatingWriter: %v", err)
		}
		w.Write([]byte("line\n"))
		w.Close()
	}
	data, _ := os.ReadFile(path)
	if strings.Count(string(data), "line\n") != 2 {
		t.Errorf("expected appended lines, got %q", data)
	}
}
