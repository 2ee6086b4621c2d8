package source

import (
	"errors"
	"math"
	"testing"
)

func validRaw() RawTables {
	raw := RawTables{}
	for _, rel := range relations {
		raw[rel] = &Relation{Name: rel, Header: Columns(rel)}
	}
	return raw
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{" 7 ", 7, false},
		{"12.0", 12, false},
		{"-3", -3, false},
		{"12.5", 0, true},
		{"", 0, true},
		{"nan", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseToken(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseToken(%q) error = %v", tt.in, err)
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("parseToken(%q) error = %v, want ErrInvalidToken", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseToken(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDecodeMissingRelation(t *testing.T) {
	raw := validRaw()
	delete(raw, RelGPS)
	if _, err := Decode("p", raw); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestDecodeMissingSceneTokenOnReading(t *testing.T) {
	raw := validRaw()
	raw[RelSensors].Rows = [][]string{{"1", "2023-01-01 00:00:00.0", "5", "", "gps", "GPS", "fix"}}
	if _, err := Decode("p", raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeGPS(t *testing.T) {
	raw := validRaw()
	raw[RelGPS].Rows = [][]string{
		{"1", "48.1", "", "inf", "0.1", "0.2", "0.3"},
		{"", "1", "1", "1", "", "", ""},
	}
	tables, err := Decode("p", raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tables.GPS) != 1 {
		t.Fatalf("gps row without token must be dropped")
	}
	g := tables.GPS[0]
	if g.Lon != nil || !math.IsInf(*g.Hgt, 1) {
		t.Fatalf("unexpected gps row %+v", g)
	}

	raw[RelGPS].Rows = [][]string{{"1", "north", "1", "1", "", "", ""}}
	if _, err := Decode("p", raw); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}
