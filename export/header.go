package export

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/emreg/errs"
	"github.com/arloliu/emreg/format"
)

const (
	// Magic identifies an export frame (bytes 0-1).
	Magic uint16 = 0xE510
	// Version is the frame layout version (byte 2).
	Version uint8 = 1
	// HeaderSize is the fixed frame header size in bytes.
	HeaderSize = 16
)

// Kind tells what table a frame carries.
type Kind uint8

const (
	KindStatistics Kind = 0x1 // KindStatistics is a table of completed design rows.
	KindTrace      Kind = 0x2 // KindTrace is a table of per-iteration parameters.
	KindMixture    Kind = 0x3 // KindMixture is a table of mixture components.
)

func (k Kind) String() string {
	switch k {
	case KindStatistics:
		return "Statistics"
	case KindTrace:
		return "Trace"
	case KindMixture:
		return "Mixture"
	default:
		return "Unknown"
	}
}

// Header is the fixed-size header in front of every export payload.
//
// Layout, little endian:
//
//	0-1   magic
//	2     version
//	3     kind
//	4     compression type
//	5-7   reserved
//	8-11  uncompressed payload size
//	12-15 stored payload size
type Header struct {
	Kind        Kind
	Compression format.CompressionType
	RawSize     uint32
	PayloadSize uint32
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(b[0:2], Magic)
	b[2] = Version
	b[3] = uint8(h.Kind)
	b[4] = uint8(h.Compression)
	binary.LittleEndian.PutUint32(b[8:12], h.RawSize)
	binary.LittleEndian.PutUint32(b[12:16], h.PayloadSize)

	return b
}

// ParseHeader parses a header from the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}
	if binary.LittleEndian.Uint16(data[0:2]) != Magic {
		return Header{}, errs.ErrInvalidMagic
	}
	if data[2] != Version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidMagic, data[2])
	}

	h := Header{
		Kind:        Kind(data[3]),
		Compression: format.CompressionType(data[4]),
		RawSize:     binary.LittleEndian.Uint32(data[8:12]),
		PayloadSize: binary.LittleEndian.Uint32(data[12:16]),
	}
	if _, err := GetCodec(h.Compression); err != nil {
		return Header{}, err
	}

	return h, nil
}
