package terminal

import "testing"

func TestColorEnabled(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want bool
	}{
		{name: "tty with color", info: Info{IsTTY: true}, want: true},
		{name: "piped output", info: Info{IsTTY: false}, want: false},
		{name: "NO_COLOR set", info: Info{IsTTY: true, NoColor: true}, want: false},
		{name: "--no-color flag", info: Info{IsTTY: true, ForceFlag: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.ColorEnabled(); got != tt.want {
				t.Fatalf("ColorEnabled() = %v, want %v", got, tt.want)
			}

			if got := tt.info.SpinnersEnabled(); got != tt.want {
				t.Fatalf("SpinnersEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPtySize(t *testing.T) {
	info := &Info{Width: 200, Height: 55}

	rows, cols := info.PtySize()
	if rows != 55 || cols != 200 {
		t.Fatalf("PtySize() = %dx%d, want 55x200", rows, cols)
	}
}

func TestPtySizeFallback(t *testing.T) {
	rows, cols := (&Info{}).PtySize()

	if rows != DefaultRows || cols != DefaultCols {
		t.Fatalf("PtySize() = %dx%d, want defaults %dx%d", rows, cols, DefaultRows, DefaultCols)
	}
}
