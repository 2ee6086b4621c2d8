package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/langchou/ridegazer/internal/models"
)

// SQLiteFile 以 SQLite 文件存放的分区，表名与列名同 CSV
type SQLiteFile struct {
	path string
}

// NewSQLiteFile 创建 SQLite 分区
func NewSQLiteFile(path string) *SQLiteFile {
	return &SQLiteFile{path: path}
}

// Name 分区路径
func (s *SQLiteFile) Name() string { return s.path }

// Tables 读取并解码全部关系
func (s *SQLiteFile) Tables(ctx context.Context) (*models.PartitionTables, error) {
	// sql.Open 会为不存在的路径创建空库，先确认文件存在
	if _, err := os.Stat(s.path); err != nil {
		return nil, &LoadError{Partition: s.path, Relation: RelRides, Err: fmt.Errorf("open database: %w", err)}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, &LoadError{Partition: s.path, Relation: RelRides, Err: fmt.Errorf("open database: %w", err)}
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	raw := make(RawTables, len(relations))
	for _, rel := range relations {
		r, err := s.readRelation(ctx, db, rel)
		if err != nil {
			return nil, err
		}
		raw[rel] = r
	}
	return Decode(s.path, raw)
}

func (s *SQLiteFile) readRelation(ctx context.Context, db *sql.DB, rel string) (*Relation, error) {
	cols := schema[rel]

	present, err := tableColumns(ctx, db, rel)
	if err != nil {
		return nil, &LoadError{Partition: s.path, Relation: rel, Err: err}
	}
	for _, c := range cols {
		if !present[c] {
			return nil, &LoadError{Partition: s.path, Relation: rel, Column: c, Err: ErrMissingColumn}
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(cols, ", "), rel)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &LoadError{Partition: s.path, Relation: rel, Err: fmt.Errorf("query: %w", err)}
	}
	defer rows.Close()

	out := &Relation{Name: rel, Header: cols}
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &LoadError{Partition: s.path, Relation: rel, Row: len(out.Rows) + 1, Err: fmt.Errorf("scan: %w", err)}
		}

		record := make([]string, len(cols))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		out.Rows = append(out.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Partition: s.path, Relation: rel, Err: fmt.Errorf("iterate rows: %w", err)}
	}
	return out, nil
}

// tableColumns 表不存在时返回空集合
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}
