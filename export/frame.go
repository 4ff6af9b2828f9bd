package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
)

// WriteFrame compresses raw with the codec of compression and writes a header
// followed by the payload to w.
func WriteFrame(w io.Writer, kind Kind, compression format.CompressionType, raw []byte) (Stats, error) {
	codec, err := GetCodec(compression)
	if err != nil {
		return Stats{}, err
	}
	if uint64(len(raw)) > math.MaxUint32 {
		return Stats{}, fmt.Errorf("%w: payload of %d bytes", errs.ErrPayloadSize, len(raw))
	}

	payload, err := codec.Compress(raw)
	if err != nil {
		return Stats{}, fmt.Errorf("compress %s payload: %w", compression, err)
	}

	h := Header{
		Kind:        kind,
		Compression: compression,
		RawSize:     uint32(len(raw)),
		PayloadSize: uint32(len(payload)),
	}
	if _, err := w.Write(h.Bytes()); err != nil {
		return Stats{}, err
	}
	if _, err := w.Write(payload); err != nil {
		return Stats{}, err
	}

	return Stats{
		Algorithm:      compression,
		OriginalSize:   int64(len(raw)),
		CompressedSize: int64(len(payload)),
	}, nil
}

// ReadFrame reads one frame from r and returns its header and uncompressed payload.
func ReadFrame(r io.Reader) (Header, []byte, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, nil, errs.ErrInvalidHeaderSize
		}

		return Header{}, nil, err
	}
	h, err := ParseHeader(buf)
	if err != nil {
		return Header{}, nil, err
	}

	payload := make([]byte, h.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", errs.ErrPayloadSize, err)
	}

	codec, _ := GetCodec(h.Compression)
	raw, err := codec.Decompress(payload)
	if err != nil {
		return Header{}, nil, fmt.Errorf("decompress %s payload: %w", h.Compression, err)
	}
	if len(raw) != int(h.RawSize) {
		return Header{}, nil, fmt.Errorf("%w: got %d bytes, header says %d", errs.ErrPayloadSize, len(raw), h.RawSize)
	}

	return h, raw, nil
}
