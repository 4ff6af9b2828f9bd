package export

// NoOpCodec stores payloads uncompressed.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// Compress returns data as is. The result shares memory with the input.
func (NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data as is. The result shares memory with the input.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
