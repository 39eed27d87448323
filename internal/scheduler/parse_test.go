package scheduler

import "testing"

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw    string
		hour   int
		minute int
	}{
		{raw: "00:00", hour: 0, minute: 0},
		{raw: "09:05", hour: 9, minute: 5},
		{raw: "14:30", hour: 14, minute: 30},
		{raw: "23:59", hour: 23, minute: 59},
		{raw: " 7:45 ", hour: 7, minute: 45},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			h, m, err := parseHHMM(tt.raw)
			if err != nil {
				t.Fatalf("parseHHMM(%q) error: %v", tt.raw, err)
			}
			if h != tt.hour || m != tt.minute {
				t.Fatalf("parseHHMM(%q) = %d:%d, want %d:%d", tt.raw, h, m, tt.hour, tt.minute)
			}
		})
	}
}

func TestParseHHMMInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "1430", "24:00", "12:60", "ab:cd", "12:", ":30", "1:2:3"} {
		if _, _, err := parseHHMM(raw); err == nil {
			t.Errorf("parseHHMM(%q): expected error", raw)
		}
	}
}
