package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func chdirTemp(t *testing.T) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}

	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}

	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestAssertGoldenMatches(t *testing.T) {
	chdirTemp(t)

	if err := os.MkdirAll("testdata", 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join("testdata", "reply.golden"), []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	AssertGolden(t, "hello\n", "reply.golden")
}

func TestAssertGoldenUpdateWrites(t *testing.T) {
	chdirTemp(t)

	*update = true
	defer func() { *update = false }()

	AssertGolden(t, "fresh content\n", "fresh.golden")

	data, err := os.ReadFile(filepath.Join("testdata", "fresh.golden"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(data) != "fresh content\n" {
		t.Fatalf("golden file = %q, want written content", data)
	}
}
