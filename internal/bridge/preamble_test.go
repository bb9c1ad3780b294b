package bridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPreamble(t *testing.T) {
	dir := t.TempDir()

	if got := loadPreamble(dir); got != "" {
		t.Fatalf("loadPreamble(empty dir) = %q, want \"\"", got)
	}

	writeContext := func(name, content string) {
		t.Helper()

		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	writeContext(memoryFile, "the service listens on 8080")
	writeContext(agentsFile, "run make lint before committing")

	got := loadPreamble(dir)

	if !strings.Contains(got, "the service listens on 8080") {
		t.Fatalf("loadPreamble() = %q, missing memory content", got)
	}

	if !strings.Contains(got, "run make lint") {
		t.Fatalf("loadPreamble() = %q, missing agents content", got)
	}

	if strings.Index(got, memoryFile) > strings.Index(got, agentsFile) {
		t.Fatalf("loadPreamble() = %q, want memory before agents", got)
	}
}

func TestLoadPreambleCapsEachFile(t *testing.T) {
	dir := t.TempDir()

	big := strings.Repeat("m", memoryLimit+500)
	if err := os.WriteFile(filepath.Join(dir, memoryFile), []byte(big), 0o644); err != nil {
		t.Fatal(err)
	}

	got := loadPreamble(dir)

	if strings.Count(got, "m") != memoryLimit {
		t.Fatalf("memory content length = %d, want capped at %d", strings.Count(got, "m"), memoryLimit)
	}
}
