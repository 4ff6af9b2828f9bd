//go:build cgo && gozstd

package export

import (
	"github.com/valyala/gozstd"
)

// zstdLevel is the libzstd compression level.
const zstdLevel = 3

// Compress compresses data using Zstandard compression.
func (ZstdCodec) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, zstdLevel), nil
}

// Decompress decompresses a Zstandard frame.
func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
