package export

import (
	"fmt"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
)

// Codec compresses and decompresses whole export payloads.
//
// Implementations are stateless values and safe for concurrent use.
type Codec interface {
	// Compress returns the compressed form of data. The input is not modified.
	Compress(data []byte) ([]byte, error)
	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)
}

// Stats describes one compressed payload.
type Stats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// CompressionRatio returns compressed size / original size, or 0 for an empty payload.
func (s Stats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the saved space as a percentage.
func (s Stats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NoOpCodec{},
	format.CompressionZstd: ZstdCodec{},
	format.CompressionS2:   S2Codec{},
	format.CompressionLZ4:  LZ4Codec{},
}

// GetCodec returns the built-in codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCompression, compressionType)
}
