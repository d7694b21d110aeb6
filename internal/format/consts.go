// Package format houses the low-level decoders for the GRIB wire format:
// locating message boundaries, splitting a message into its sections per
// edition, and the numeric encodings (sign-and-magnitude integers, IBM
// floats, simple bit packing) the sections use. The goal is to keep parsing
// focused, allocation-free where possible, and independent from the public
// API so higher-level packages can orchestrate the data in a more ergonomic
// form.
package format

var (
	// Magic is the four-byte signature at the start of every GRIB message.
	Magic = []byte{'G', 'R', 'I', 'B'}

	// EndMarker is the four-byte terminator closing every GRIB message.
	EndMarker = []byte{'7', '7', '7', '7'}
)

const (
	// MagicSize is the length of the GRIB signature.
	MagicSize = 4

	// EndMarkerSize is the length of the 7777 terminator.
	EndMarkerSize = 4

	// IndicatorSize1 is the edition-1 indicator section size: signature,
	// 24-bit total length, 8-bit edition.
	IndicatorSize1 = 8

	// IndicatorSize2 is the edition-2 indicator section size: signature,
	// 16-bit reserved, discipline, edition, 64-bit total length.
	IndicatorSize2 = 16

	// SectionHeaderSize1 is the 24-bit length prefix on edition-1 sections.
	SectionHeaderSize1 = 3

	// SectionHeaderSize2 is the edition-2 section header: 32-bit length plus
	// the section number octet.
	SectionHeaderSize2 = 5

	// PDSMinSize is the minimum edition-1 product definition section length.
	PDSMinSize = 28

	// BDSHeaderSize is the edition-1 binary data section header: length,
	// flags/unused-bits octet, binary scale factor, IBM reference value,
	// bits per value.
	BDSHeaderSize = 11
)

// Edition-1 PDS octet 8 presence flags.
const (
	PDSFlagGDS = 0x80 // grid description section included
	PDSFlagBMS = 0x40 // bitmap section included
)

// Edition-1 section numbers. The indicator is section 0 and the end marker
// section 5, matching the WMO numbering.
const (
	SectionIndicator = 0
	SectionPDS       = 1
	SectionGDS       = 2
	SectionBMS       = 3
	SectionBDS       = 4
	SectionEnd1      = 5
)

// Edition-2 end-of-message pseudo section number.
const SectionEnd2 = 8
