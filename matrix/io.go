package matrix

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/flashmat/internal/conv"
	"github.com/hupe1980/flashmat/internal/mem"
)

// File layout of a single matrix written by WriteTo:
//
//	magic   [4]byte "FMDM"
//	version uint16
//	layout  uint8
//	type    uint8
//	rows    uint64
//	cols    uint64
//	_       [8]byte
//	data    rows*cols*type.Size() bytes in the stored layout
const (
	headerSize    = 32
	formatVersion = 1
)

var fileMagic = [4]byte{'F', 'M', 'D', 'M'}

// ErrInvalidFile is returned by Load for input that is not a matrix file.
var ErrInvalidFile = errors.New("matrix: invalid matrix file")

func writeTo(w io.Writer, m Dense) (int64, error) {
	var hdr [headerSize]byte
	copy(hdr[0:4], fileMagic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], formatVersion)
	hdr[6] = byte(m.Layout())
	hdr[7] = byte(m.Type())
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(m.Rows()))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(m.Cols()))

	n, err := w.Write(hdr[:])
	total := int64(n)
	if err != nil {
		return total, err
	}
	n, err = w.Write(m.Raw())
	total += int64(n)
	return total, err
}

func writeFile(name string, m Dense) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriterSize(f, 1<<20)
	if _, err := writeTo(bw, m); err != nil {
		return err
	}
	return bw.Flush()
}

// loadChunk bounds the memory committed to a header before the data it
// announces has arrived. It is a variable so tests can shrink it.
var loadChunk = 64 << 20

// Load reads a matrix written by WriteTo.
func Load(r io.Reader) (Dense, error) {
	return load(r, -1)
}

// LoadFile reads a matrix file written by WriteFile.
func LoadFile(name string) (Dense, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return load(bufio.NewReaderSize(f, 1<<20), st.Size()-headerSize)
}

// load reads one matrix from r. If avail is not negative it is the number of
// bytes that follow the header, and a header claiming more is rejected
// before anything is allocated.
func load(r io.Reader, avail int64) (Dense, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidFile, err)
	}
	if [4]byte(hdr[0:4]) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidFile, hdr[0:4])
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFile, v)
	}
	layout := Layout(hdr[6])
	typ := ScalarType(hdr[7])
	if layout > LayoutCol || !typ.Valid() {
		return nil, fmt.Errorf("%w: layout %d type %d", ErrInvalidFile, hdr[6], hdr[7])
	}
	rows := binary.LittleEndian.Uint64(hdr[8:16])
	cols := binary.LittleEndian.Uint64(hdr[16:24])
	const maxDim = 1 << 40
	if rows > maxDim || cols > maxDim || (cols != 0 && rows > (1<<62)/cols/uint64(typ.Size())) {
		return nil, fmt.Errorf("%w: shape %dx%d too large", ErrInvalidFile, rows, cols)
	}

	nr, err := conv.Uint64ToInt(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	nc, err := conv.Uint64ToInt(cols)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	size := nr * nc * typ.Size()
	if avail >= 0 && int64(size) > avail {
		return nil, fmt.Errorf("%w: shape %dx%d needs %d bytes, file holds %d", ErrInvalidFile, nr, nc, size, avail)
	}

	data, err := readData(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %w", ErrInvalidFile, err)
	}
	return wrap(nr, nc, typ, layout, data), nil
}

// readData reads size bytes into a page-aligned buffer. Beyond loadChunk the
// buffer grows only as data arrives.
func readData(r io.Reader, size int) ([]byte, error) {
	buf := mem.AllocPage(min(size, loadChunk))
	n := 0
	for n < size {
		if n == len(buf) {
			grown := mem.AllocPage(min(size, 2*len(buf)))
			copy(grown, buf)
			buf = grown
		}
		m, err := io.ReadFull(r, buf[n:])
		n += m
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}
