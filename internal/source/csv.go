package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/langchou/ridegazer/internal/models"
)

// CSVDir 以目录形式存放的分区：rides.csv scenes.csv samples.csv sensor_data.csv gps_data.csv
type CSVDir struct {
	dir string
}

// NewCSVDir 创建 CSV 目录分区
func NewCSVDir(dir string) *CSVDir {
	return &CSVDir{dir: dir}
}

// Name 分区路径
func (d *CSVDir) Name() string { return d.dir }

// Tables 读取并解码全部关系
func (d *CSVDir) Tables(ctx context.Context) (*models.PartitionTables, error) {
	raw := make(RawTables, len(relations))
	for _, rel := range relations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := d.readRelation(rel)
		if err != nil {
			return nil, err
		}
		raw[rel] = r
	}
	return Decode(d.dir, raw)
}

func (d *CSVDir) readRelation(rel string) (*Relation, error) {
	path := filepath.Join(d.dir, rel+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Partition: d.dir, Relation: rel, Err: fmt.Errorf("open %s: %w", path, err)}
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Relation{Name: rel}, nil
	}
	if err != nil {
		return nil, &LoadError{Partition: d.dir, Relation: rel, Err: fmt.Errorf("read header: %w", err)}
	}

	out := &Relation{Name: rel, Header: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Partition: d.dir, Relation: rel, Row: len(out.Rows) + 1, Err: fmt.Errorf("read row: %w", err)}
		}
		out.Rows = append(out.Rows, record)
	}
	return out, nil
}
