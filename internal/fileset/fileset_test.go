package fileset

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return path
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()

	want := []string{
		writeFile(t, dir, "index.html"),
		writeFile(t, dir, "notes.md"),
		writeFile(t, dir, filepath.Join("sub", "deep", "app.js")),
	}

	// Outside the allow-list; must not appear.
	writeFile(t, dir, "binary.exe")

	sort.Strings(want)

	got, err := Snapshot(dir, nil)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snapshot() = %v, want %v", got, want)
	}

	if !sort.StringsAreSorted(got) {
		t.Fatalf("Snapshot() not sorted: %v", got)
	}
}

func TestSnapshotCustomExtensions(t *testing.T) {
	dir := t.TempDir()

	csv := writeFile(t, dir, "data.csv")
	writeFile(t, dir, "skip.md")

	got, err := Snapshot(dir, []string{".csv"})
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	if !reflect.DeepEqual(got, []string{csv}) {
		t.Fatalf("Snapshot() = %v, want [%s]", got, csv)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		previous []string
		current  []string
		want     []string
	}{
		{
			name:     "new file detected",
			previous: []string{"a.txt", "b.txt"},
			current:  []string{"a.txt", "b.txt", "c.txt"},
			want:     []string{"c.txt"},
		},
		{
			name:     "no change",
			previous: []string{"a.txt"},
			current:  []string{"a.txt"},
			want:     nil,
		},
		{
			name:     "deletions ignored",
			previous: []string{"a.txt", "b.txt"},
			current:  []string{"b.txt"},
			want:     nil,
		},
		{
			name:     "empty previous",
			previous: nil,
			current:  []string{"z.txt", "a.txt"},
			want:     []string{"a.txt", "z.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Diff(tt.previous, tt.current); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage("/tmp/shot.PNG") {
		t.Fatal("IsImage(shot.PNG) = false, want true")
	}

	if IsImage("/tmp/app.js") {
		t.Fatal("IsImage(app.js) = true, want false")
	}
}
