package sanitize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bridgebot-dev/bridgebot/internal/testutil"
)

func TestCleanTerminalCapture_Golden(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "terminal_capture.txt"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	testutil.AssertGolden(t, Clean(string(raw)), "clean_output.golden")
}
