// Package testutil holds shared test helpers.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files with current output")

// AssertGolden compares got with the named file under testdata,
// rewriting the file instead when the -update flag is set. Golden
// files pin down rendering that is tedious to assert inline, like
// sanitized terminal captures and JSON command output.
func AssertGolden(t *testing.T, got, name string) {
	t.Helper()

	path := filepath.Join("testdata", name)

	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}

		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", path, err)
		}

		return
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("missing golden file %s; run go test -update to create it", path)
	}

	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}

	if got != string(want) {
		t.Errorf("mismatch against %s\ngot:\n%s\nwant:\n%s", path, got, want)
	}
}
