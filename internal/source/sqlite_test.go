package source

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

const sqliteSchema = `
CREATE TABLE rides (token INTEGER, name TEXT);
CREATE TABLE scenes (token INTEGER, ride_token INTEGER, dir_name TEXT);
CREATE TABLE samples (token INTEGER, scene_token INTEGER, timestamp TEXT, prev_sample_token INTEGER);
CREATE TABLE sensor_data (token INTEGER, timestamp TEXT, sample_token INTEGER, scene_token INTEGER,
	measurement_type TEXT, calibrated_sensor_name TEXT, sensor_data_type TEXT);
CREATE TABLE gps_data (token INTEGER, lat REAL, lon REAL, hgt REAL, lat_std REAL, lon_std REAL, hgt_std REAL);

INSERT INTO rides VALUES (1, 'morning');
INSERT INTO scenes VALUES (10, 1, 'scene_a');
INSERT INTO samples VALUES (100, 10, '2023-01-01 00:00:00.0', NULL);
INSERT INTO samples VALUES (101, NULL, '2023-01-01 00:00:01.0', NULL);
INSERT INTO sensor_data VALUES (1000, '2023-01-01 00:00:00.1', 100, 10, 'gps', 'GPS_FRONT', 'fix');
INSERT INTO gps_data VALUES (1000, 48.1, 11.5, 520.0, NULL, NULL, NULL);
`

func writeSQLite(t *testing.T, ddl string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partition.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	return path
}

func TestSQLiteFileTables(t *testing.T) {
	path := writeSQLite(t, sqliteSchema)

	tables, err := NewSQLiteFile(path).Tables(context.Background())
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	if len(tables.Rides) != 1 || tables.Rides[0].Token != 1 || tables.Rides[0].Name != "morning" {
		t.Fatalf("unexpected rides %+v", tables.Rides)
	}
	if len(tables.Samples) != 1 || tables.Samples[0].PrevSampleToken != nil {
		t.Fatalf("unexpected samples %+v", tables.Samples)
	}
	if len(tables.Sensors) != 1 || tables.Sensors[0].CalibratedSensorName != "GPS_FRONT" {
		t.Fatalf("unexpected sensors %+v", tables.Sensors)
	}
	g := tables.GPS[0]
	if g.Lat == nil || *g.Lat != 48.1 || *g.Hgt != 520 || g.LatStd != nil {
		t.Fatalf("unexpected gps %+v", g)
	}
}

func TestSQLiteFileMissingColumn(t *testing.T) {
	path := writeSQLite(t, `
CREATE TABLE rides (token INTEGER, name TEXT);
CREATE TABLE scenes (token INTEGER, ride_token INTEGER);
`)
	_, err := NewSQLiteFile(path).Tables(context.Background())
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Relation != RelScenes || loadErr.Column != "dir_name" {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestSQLiteFileMissingFile(t *testing.T) {
	_, err := NewSQLiteFile(filepath.Join(t.TempDir(), "nope.db")).Tables(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
}
