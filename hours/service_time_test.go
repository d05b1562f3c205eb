package hours

import (
	"testing"
	"time"
)

func TestMidnight(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "utc morning is same service day",
			input:    time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC),
			expected: "2025-01-01T00:00:00+08:00",
		},
		{
			name:     "utc evening is next service day",
			input:    time.Date(2025, 1, 1, 17, 0, 0, 0, time.UTC),
			expected: "2025-01-02T00:00:00+08:00",
		},
		{
			name:     "crossing year",
			input:    time.Date(2024, 12, 31, 16, 30, 0, 0, time.UTC),
			expected: "2025-01-01T00:00:00+08:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Midnight(tt.input).Format(time.RFC3339)
			if result != tt.expected {
				t.Errorf("Midnight() expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 5, 10, 23, 0, 0, 0, serviceLoc)
	b := time.Date(2025, 5, 10, 16, 0, 0, 0, time.UTC) // 00:00 next day in service time
	if SameDay(a, b) {
		t.Errorf("SameDay(%v, %v) expected false", a, b)
	}
	if !SameDay(a, a.Add(-time.Hour)) {
		t.Errorf("SameDay expected true within the same day")
	}
}

func TestParseMinute(t *testing.T) {
	got, err := ParseMinute("2025-05-10 20:05")
	if err != nil {
		t.Fatalf("ParseMinute failed: %v", err)
	}
	expected := "2025-05-10T12:05:00Z"
	if s := got.UTC().Format(time.RFC3339); s != expected {
		t.Errorf("ParseMinute expected %q, got %q", expected, s)
	}
}

func TestFormatTimeInGuiTimezone(t *testing.T) {
	if s := FormatTimeInGuiTimezone(time.Time{}); s != "-" {
		t.Errorf("zero time expected %q, got %q", "-", s)
	}
}
