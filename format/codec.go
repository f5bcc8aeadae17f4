package format

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec is the compression applied to each row block.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecLZ4
	CodecZstd
	CodecS2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	case CodecS2:
		return "s2"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

// Compressor compresses row blocks. Decompress knows the decoded size from
// the header, so dst always has exactly the decoded length.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(dst, src []byte) error
}

// GetCompressor returns the built-in compressor for c.
func GetCompressor(c Codec) (Compressor, error) {
	switch c {
	case CodecNone:
		return noopCompressor{}, nil
	case CodecLZ4:
		return lz4Compressor{}, nil
	case CodecZstd:
		return zstdCompressor{}, nil
	case CodecS2:
		return s2Compressor{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported codec %v", ErrInvalidHeader, c)
	}
}

var errSizeMismatch = errors.New("decoded size mismatch")

type noopCompressor struct{}

func (noopCompressor) Compress(src []byte) ([]byte, error) {
	return src, nil
}

func (noopCompressor) Decompress(dst, src []byte) error {
	if len(src) != len(dst) {
		return errSizeMismatch
	}
	copy(dst, src)
	return nil
}

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

type lz4Compressor struct{}

func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(src, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input; lz4 signals this with n == 0. Store a
		// literal-only block so the decoder sees a uniform format.
		return lz4Literal(src), nil
	}
	return dst[:n], nil
}

func (lz4Compressor) Decompress(dst, src []byte) error {
	if len(dst) == 0 {
		return nil
	}
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return err
	}
	if n != len(dst) {
		return errSizeMismatch
	}
	return nil
}

// lz4Literal encodes src as a single lz4 sequence of literals.
func lz4Literal(src []byte) []byte {
	n := len(src)
	out := make([]byte, 0, n+n/255+16)
	if n < 15 {
		out = append(out, byte(n<<4))
	} else {
		out = append(out, 0xF0)
		rem := n - 15
		for rem >= 255 {
			out = append(out, 255)
			rem -= 255
		}
		out = append(out, byte(rem))
	}
	return append(out, src...)
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("format: create zstd encoder: %v", err))
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("format: create zstd decoder: %v", err))
		}
		return dec
	},
}

type zstdCompressor struct{}

func (zstdCompressor) Compress(src []byte) ([]byte, error) {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

func (zstdCompressor) Decompress(dst, src []byte) error {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return fmt.Errorf("zstd: %w", err)
	}
	if len(out) != len(dst) {
		return errSizeMismatch
	}
	if len(out) > 0 && &out[0] != &dst[0] {
		copy(dst, out)
	}
	return nil
}

type s2Compressor struct{}

func (s2Compressor) Compress(src []byte) ([]byte, error) {
	return s2.Encode(nil, src), nil
}

func (s2Compressor) Decompress(dst, src []byte) error {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return err
	}
	if n != len(dst) {
		return errSizeMismatch
	}
	_, err = s2.Decode(dst, src)
	return err
}
