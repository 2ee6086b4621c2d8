package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/langchou/ridegazer/internal/models"
	"github.com/langchou/ridegazer/internal/telemetry"
)

// 导出格式
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// ParseFormat 空字符串按扩展名推断，默认 json
func ParseFormat(format, path string) (string, error) {
	switch strings.ToLower(format) {
	case FormatJSON, FormatParquet:
		return strings.ToLower(format), nil
	case "":
		if strings.HasSuffix(strings.ToLower(path), ".parquet") {
			return FormatParquet, nil
		}
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format %q (expected json|parquet)", format)
}

// WriteJSON 写出完整骑行树（含派生字段），非有限数值写为 null
func WriteJSON(w io.Writer, rides []*models.Ride) error {
	tree := make([]any, 0, len(rides))
	for _, r := range rides {
		tree = append(tree, r.ToMap())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(telemetry.Sanitize(tree)); err != nil {
		return fmt.Errorf("encode rides: %w", err)
	}
	return nil
}

// WriteFile 按格式写出数据集
func WriteFile(path, format string, ds *telemetry.Dataset) error {
	format, err := ParseFormat(format, path)
	if err != nil {
		return err
	}

	switch format {
	case FormatParquet:
		data, err := MarshalParquet(ds.Rides())
		if err != nil {
			return fmt.Errorf("write parquet: %w", err)
		}
		return os.WriteFile(path, data, 0o644)
	default:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := WriteJSON(f, ds.Trees()); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
}
