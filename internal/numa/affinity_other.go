//go:build !linux

package numa

func setAffinity([]int) (func() error, error) {
	return nil, ErrUnsupported
}
