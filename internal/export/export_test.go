package export

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/langchou/ridegazer/internal/models"
	"github.com/langchou/ridegazer/internal/telemetry"
)

func fp(v float64) *float64 { return &v }

func testRides() []*models.Ride {
	return []*models.Ride{
		{
			Token: 1, Name: "morning", DirectoryToken: 0,
			Scenes: []*models.Scene{{
				Token: 10, RideToken: 1, DirName: "a",
				Samples: []*models.Sample{{
					Token: 100, SceneToken: 10, Timestamp: "2023-01-01 00:00:00.0",
					Sensors: []*models.SensorReading{{Token: 1000, Lat: fp(48.1), Lon: fp(11.5), Hgt: fp(math.Inf(1))}},
				}},
			}},
			Duration: fp(0), Date: "2023-01-01", Time: "00:00:00", Distance: fp(0),
			NumScenes: 1, NumSamples: 1,
		},
		{Token: 2, Name: "broken", DirectoryToken: 1, Scenes: []*models.Scene{{Token: 20, RideToken: 2}}, NumScenes: 1},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		format, path, want string
		wantErr            bool
	}{
		{"", "data.json", FormatJSON, false},
		{"", "rides.PARQUET", FormatParquet, false},
		{"Parquet", "out.bin", FormatParquet, false},
		{"csv", "out.csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.format, tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseFormat(%q, %q) = %q, %v", tt.format, tt.path, got, err)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testRides()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	var tree []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &tree); err != nil {
		t.Fatalf("output is not valid json: %v\n%s", err, buf.String())
	}
	if len(tree) != 2 || tree[0]["name"] != "morning" {
		t.Fatalf("unexpected tree %v", tree)
	}
	if tree[1]["duration"] != nil || tree[1]["date"] != "" {
		t.Fatalf("ride without samples must have null duration: %v", tree[1])
	}

	scenes := tree[0]["scenes"].([]any)
	sample := scenes[0].(map[string]any)["samples"].([]any)[0].(map[string]any)
	reading := sample["sensors"].([]any)[0].(map[string]any)
	if reading["hgt"] != nil || reading["lat"] != 48.1 {
		t.Fatalf("non-finite height must be null: %v", reading)
	}
	if sample["prev_sample_token"] != nil {
		t.Fatalf("absent prev token must be null")
	}
}

func TestMarshalParquet(t *testing.T) {
	summaries := []models.RideSummary{
		{Token: 1, Name: "morning", Date: "2023-01-01", Time: "00:00:00", Duration: fp(10.5), Distance: fp(1.25), NumScenes: 2, NumSamples: 3},
		{Token: 2, Name: "broken", DirectoryToken: 1, NumScenes: 1},
	}

	data, err := MarshalParquet(summaries)
	if err != nil {
		t.Fatalf("marshal parquet: %v", err)
	}
	if len(data) < 8 || string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Fatalf("missing parquet magic")
	}

	fr := parquetbuffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(fr, new(rideSummaryRow), 1)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer pr.ReadStop()

	if n := pr.GetNumRows(); n != 2 {
		t.Fatalf("rows = %d", n)
	}
	rows := make([]rideSummaryRow, 2)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read: %v", err)
	}
	if rows[0].Name != "morning" || rows[0].DurationS == nil || *rows[0].DurationS != 10.5 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].DurationS != nil || rows[1].DistanceKm != nil || rows[1].DirectoryToken != 1 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
}

func TestWriteFile(t *testing.T) {
	ds := telemetry.NewDataset(testRides(), 2)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "data.json")
	if err := WriteFile(jsonPath, "", ds); err != nil {
		t.Fatalf("write json file: %v", err)
	}
	raw, err := os.ReadFile(jsonPath)
	if err != nil || !json.Valid(raw) {
		t.Fatalf("invalid json file: %v", err)
	}

	parquetPath := filepath.Join(dir, "rides.parquet")
	if err := WriteFile(parquetPath, "", ds); err != nil {
		t.Fatalf("write parquet file: %v", err)
	}
	raw, err = os.ReadFile(parquetPath)
	if err != nil || string(raw[:4]) != "PAR1" {
		t.Fatalf("invalid parquet file: %v", err)
	}

	if err := WriteFile(filepath.Join(dir, "x"), "xml", ds); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
