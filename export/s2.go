package export

import "github.com/klauspost/compress/s2"

// S2Codec compresses payloads with S2.
type S2Codec struct{}

var _ Codec = S2Codec{}

// Compress compresses data using S2 block encoding.
func (S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses an S2 block.
func (S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
