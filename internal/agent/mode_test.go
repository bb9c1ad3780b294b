package agent

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Mode
		wantErr bool
	}{
		{name: "per-request", in: "per-request", want: ModePerRequest},
		{name: "persistent", in: "persistent", want: ModePersistent},
		{name: "pty", in: "pty", want: ModePTY},
		{name: "legacy pty alias", in: "interactive-pty", want: ModePTY},
		{name: "legacy per-request alias", in: "per-request-process", want: ModePerRequest},
		{name: "legacy persistent alias", in: "persistent-process", want: ModePersistent},
		{name: "empty defaults to per-request", in: "", want: ModePerRequest},
		{name: "unknown", in: "batch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) error = nil, want error", tt.in)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}

			if got != tt.want {
				t.Fatalf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestModeRetained(t *testing.T) {
	if ModePerRequest.retained() {
		t.Fatal("ModePerRequest.retained() = true, want false")
	}

	if !ModePersistent.retained() {
		t.Fatal("ModePersistent.retained() = false, want true")
	}

	if !ModePTY.retained() {
		t.Fatal("ModePTY.retained() = false, want true")
	}
}
