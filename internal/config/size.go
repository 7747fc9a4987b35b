package config

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeUnits = []struct {
	suffix string
	scale  float64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize parses a byte size such as "10MB", "512KB" or "1.5GB".
// The empty string means zero.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	scale := 1.0
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			scale = u.scale
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(n * scale), nil
}

// MaxSizeBytes returns the rotation threshold, zero when rotation is off.
func (l LoggingConfig) MaxSizeBytes() int64 {
	n, err := ParseSize(l.MaxSize)
	if err != nil {
		return 0
	}
	return n
}
