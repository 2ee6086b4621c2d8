package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2023-09-29 14:48:46.745031", time.Date(2023, 9, 29, 14, 48, 46, 745031000, time.UTC)},
		{"2023-01-01 00:00:10.5", time.Date(2023, 1, 1, 0, 0, 10, 500000000, time.UTC)},
		{"2023-01-01 00:00:00.0", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"2023-01-01 00:00:00",
		"2023-01-01 00:00:00.",
		"2023-01-01 00:00:00.1234567",
		"2023-01-01 00:00:00.12a",
		"2023-01-01T00:00:00.1",
		"01/01/2023 00:00:00.1",
	} {
		if _, err := ParseTimestamp(in); !errors.Is(err, ErrBadTimestamp) {
			t.Fatalf("ParseTimestamp(%q) error = %v", in, err)
		}
	}
}
