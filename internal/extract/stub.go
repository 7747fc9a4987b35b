//go:build !cgo

package extract

// IsAvailable reports whether C extraction is compiled in.
func IsAvailable() bool {
	return false
}

func newParser() (parseFunc, error) {
	return nil, ErrUnavailable
}
