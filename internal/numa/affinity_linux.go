//go:build linux

package numa

import "golang.org/x/sys/unix"

// setAffinity restricts the calling thread to cpus and returns a function
// that reinstates the previous mask.
func setAffinity(cpus []int) (func() error, error) {
	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		return nil, err
	}

	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return nil, err
	}
	return func() error { return unix.SchedSetaffinity(0, &prev) }, nil
}
