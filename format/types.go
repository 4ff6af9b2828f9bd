// Package format holds the small shared types used across emreg packages:
// comparison modes, export compression identifiers and the unused-cell sentinel.
package format

import "math"

// Unused marks a design-matrix cell whose value was not observed.
//
// Missing cells always carry this explicit sentinel; NaN never stands in for
// a missing value inside the numerical core.
const Unused = math.MaxFloat64

// IsUnused reports whether v is the unused sentinel.
func IsUnused(v float64) bool {
	return v == Unused
}

type (
	ThresholdMode   uint8
	CompressionType uint8
)

const (
	ThresholdAbsolute ThresholdMode = 0x1 // ThresholdAbsolute compares |a-b| against epsilon.
	ThresholdRatio    ThresholdMode = 0x2 // ThresholdRatio compares |a-b|/|b| against epsilon.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (m ThresholdMode) String() string {
	switch m {
	case ThresholdAbsolute:
		return "Absolute"
	case ThresholdRatio:
		return "Ratio"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-insensitive name to a CompressionType.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "", "none", "None", "NONE":
		return CompressionNone, true
	case "zstd", "Zstd", "ZSTD":
		return CompressionZstd, true
	case "s2", "S2":
		return CompressionS2, true
	case "lz4", "LZ4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
