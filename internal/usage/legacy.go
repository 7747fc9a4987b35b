package usage

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseDump reads the line-oriented dump the earlier extraction script printed,
// one unit per line:
//
//	/drivers/net/foo.c : {foo_open, foo_close, size_t}
//
// Lines without a separator are skipped. Empty unit sets may appear as "{}" or
// "set()".
func ParseDump(r io.Reader) (*Index, int, error) {
	ix := NewIndex()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	skipped := 0
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, " : ")
		if len(parts) < 2 {
			skipped++
			continue
		}
		unit := parts[0]
		values := strings.Trim(strings.Join(parts[1:], " "), "{}")
		if strings.TrimSpace(values) == "set()" {
			ix.Add(unit, nil)
			continue
		}
		var symbols []string
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				symbols = append(symbols, v)
			}
		}
		ix.Add(unit, symbols)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read dump line %d: %w", line+1, err)
	}
	return ix, skipped, nil
}
