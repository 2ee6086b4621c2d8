package telemetry

import (
	"fmt"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	// DateLayout 骑行日期输出格式
	DateLayout = "2006-01-02"
	// ClockLayout 骑行开始时刻输出格式
	ClockLayout = "15:04:05"
)

// ParseTimestamp 解析 "2023-09-29 14:48:46.745031"，小数部分必须为 1-6 位数字，按 UTC 处理
func ParseTimestamp(s string) (time.Time, error) {
	base, frac, ok := strings.Cut(s, ".")
	if !ok || len(frac) == 0 || len(frac) > 6 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}

	micros := 0
	for i := 0; i < 6; i++ {
		micros *= 10
		if i >= len(frac) {
			continue
		}
		c := frac[i]
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
		}
		micros += int(c - '0')
	}

	t, err := time.ParseInLocation(timestampLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return t.Add(time.Duration(micros) * time.Microsecond), nil
}
