package bridge

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	memoryFile  = "BRIDGE_MEMORY.md"
	memoryLimit = 2000

	agentsFile  = "BRIDGE_AGENTS.md"
	agentsLimit = 1500
)

// loadPreamble assembles out-of-band context from the well-known files
// in dir. Each file is optional and byte-capped so a runaway memory file
// cannot crowd out the user's message. Unreadable files are skipped.
func loadPreamble(dir string) string {
	sources := []struct {
		name  string
		limit int
	}{
		{memoryFile, memoryLimit},
		{agentsFile, agentsLimit},
	}

	var b strings.Builder

	for _, src := range sources {
		data, err := os.ReadFile(filepath.Join(dir, src.name))
		if err != nil {
			continue
		}

		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}

		if len(text) > src.limit {
			text = text[:src.limit]
		}

		b.WriteString("\n")
		b.WriteString(src.name)
		b.WriteString(":\n")
		b.WriteString(text)
	}

	return b.String()
}
