package mmap

import "errors"

// AccessPattern is an advisory hint about how mapped bytes will be read.
type AccessPattern int

const (
	// AccessDefault removes any previous advice.
	AccessDefault AccessPattern = iota
	// AccessSequential marks a range that is scanned front to back, such as
	// a coarse chunk of row blocks.
	AccessSequential
	// AccessRandom marks a range read in no particular order.
	AccessRandom
	// AccessWillNeed asks the kernel to start reading the range ahead.
	AccessWillNeed
	// AccessDontNeed marks a range whose pages can be dropped.
	AccessDontNeed
)

var (
	// ErrClosed is returned when a closed mapping is accessed.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files whose size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned for ranges outside the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned for negative offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
