package export

// ZstdCodec compresses payloads with Zstandard.
//
// The pure Go implementation from klauspost/compress is used by default.
// Building with cgo and the gozstd tag switches to the libzstd binding.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}
