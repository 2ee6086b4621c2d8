package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/langchou/ridegazer/internal/telemetry"
)

// Open 按路径选择分区类型：.db/.sqlite/.sqlite3 为 SQLite 文件，其余必须是 CSV 目录
func Open(path string) (telemetry.PartitionSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteFile(path), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open partition %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open partition %s: not a directory", path)
	}
	return NewCSVDir(path), nil
}

// OpenAll 按顺序打开分区，顺序决定 directory_token
func OpenAll(paths []string) ([]telemetry.PartitionSource, error) {
	sources := make([]telemetry.PartitionSource, 0, len(paths))
	for _, p := range paths {
		src, err := Open(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
