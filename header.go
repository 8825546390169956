package splash

import "fmt"

const (
	// fileHeaderLen is the size of the BITMAPFILEHEADER.
	fileHeaderLen = 14
	// infoHeaderLen is the size of the BITMAPINFOHEADER, the oldest DIB
	// header this decoder accepts. Newer, larger headers are allowed; their
	// extra fields are skipped, never interpreted.
	infoHeaderLen = 40
	// maxPixmapBytes caps the encoded pixel data at 64 MiB. Header fields are
	// attacker-controlled, so huge declared dimensions must not translate
	// into huge allocations.
	maxPixmapBytes = 64 * 1024 * 1024
)

// Compression kinds accepted by this decoder.
const (
	compressionNone      = 0
	compressionBitFields = 3
)

func readUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func readUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// bmpInfo holds the fields of the device-independent bitmap header.
// All values are read field-by-field in little-endian order from declared
// byte offsets; the struct is never overlaid onto the input.
type bmpInfo struct {
	headerSize      uint32
	width, height   uint32
	planes          uint16
	depth           uint16
	compression     uint32
	imageSize       uint32
	ppmX, ppmY      uint32
	colorsUsed      uint32
	colorsImportant uint32
}

// stride returns the byte length of one encoded row. Rows are padded to a
// 32-bit boundary; every row consumes exactly this many bytes no matter how
// many the pixels themselves need. Computed in uint64 so that
// attacker-controlled width and depth cannot overflow.
func (h *bmpInfo) stride() uint64 {
	return (uint64(h.depth)*uint64(h.width) + 31) / 32 * 4
}

// pixmapBytes returns the total encoded pixel data length in bytes.
func (h *bmpInfo) pixmapBytes() uint64 {
	return h.stride() * uint64(h.height)
}

// colorTable is a read-only view of the palette region of the input buffer.
// Entries are 4 bytes in blue, green, red, reserved order. The table is
// indexed in place, never copied.
type colorTable []byte

// word returns palette entry i packed as an XRGB word. An index beyond the
// table yields black; a degenerate image may carry an empty palette and must
// still decode without reading out of bounds.
func (t colorTable) word(i uint32) uint32 {
	off := uint64(i) * 4
	if off+4 > uint64(len(t)) {
		return 0
	}

	return uint32(t[off+2])<<16 | uint32(t[off+1])<<8 | uint32(t[off])
}

// parseHeader validates the file header, the DIB header and the palette
// region of data against each other and against the buffer length. It
// returns the parsed DIB header, a view of the color table and a view of the
// encoded pixel data, all bounds-checked once here and never re-derived.
func parseHeader(data []byte) (*bmpInfo, colorTable, []byte, error) {
	if len(data) < fileHeaderLen+infoHeaderLen {
		return nil, nil, nil, fmt.Errorf("%w: %d bytes is too short for the headers", ErrMalformed, len(data))
	}

	// File header.
	if data[0] != 'B' || data[1] != 'M' {
		return nil, nil, nil, fmt.Errorf("%w: bad signature", ErrMalformed)
	}

	declaredSize := readUint32(data[2:])
	offset := readUint32(data[10:])

	if uint64(declaredSize) != uint64(len(data)) {
		return nil, nil, nil, fmt.Errorf("%w: declared size %d, buffer length %d", ErrMalformed, declaredSize, len(data))
	}

	if offset > declaredSize {
		return nil, nil, nil, fmt.Errorf("%w: pixel data offset %d beyond declared size %d", ErrMalformed, offset, declaredSize)
	}

	// Device-independent bitmap header.
	info := &bmpInfo{
		headerSize:      readUint32(data[14:]),
		width:           readUint32(data[18:]),
		height:          readUint32(data[22:]),
		planes:          readUint16(data[26:]),
		depth:           readUint16(data[28:]),
		compression:     readUint32(data[30:]),
		imageSize:       readUint32(data[34:]),
		ppmX:            readUint32(data[38:]),
		ppmY:            readUint32(data[42:]),
		colorsUsed:      readUint32(data[46:]),
		colorsImportant: readUint32(data[50:]),
	}

	if info.headerSize < infoHeaderLen {
		return nil, nil, nil, fmt.Errorf("%w: DIB header size %d", ErrUnsupported, info.headerSize)
	}

	switch info.depth {
	case 1, 4, 8, 24:
		if info.compression != compressionNone {
			return nil, nil, nil, fmt.Errorf("%w: compression %d at depth %d", ErrUnsupported, info.compression, info.depth)
		}
	case 16, 32:
		if info.compression != compressionNone && info.compression != compressionBitFields {
			return nil, nil, nil, fmt.Errorf("%w: compression %d at depth %d", ErrUnsupported, info.compression, info.depth)
		}
	default:
		return nil, nil, nil, fmt.Errorf("%w: depth %d", ErrUnsupported, info.depth)
	}

	pixmapLen := info.pixmapBytes()
	if uint64(declaredSize)-uint64(offset) < pixmapLen {
		return nil, nil, nil, fmt.Errorf("%w: %d bytes of pixel data, %d remain after offset", ErrMalformed, pixmapLen, declaredSize-offset)
	}

	if pixmapLen > maxPixmapBytes {
		return nil, nil, nil, fmt.Errorf("%w: pixel data length %d exceeds %d", ErrMalformed, pixmapLen, maxPixmapBytes)
	}

	// Color table. The palette starts right after the DIB header as declared
	// by the header itself, so extended header variants are skipped whole.
	paletteStart := uint64(fileHeaderLen) + uint64(info.headerSize)
	if uint64(offset) < paletteStart {
		return nil, nil, nil, fmt.Errorf("%w: pixel data offset %d inside the headers", ErrMalformed, offset)
	}

	var table colorTable
	if uint64(offset) > paletteStart {
		var entries uint64
		if info.colorsUsed != 0 {
			entries = uint64(info.colorsUsed)
		} else {
			switch info.depth {
			case 1, 4, 8:
				entries = 1 << info.depth
			}
		}

		if uint64(offset)-paletteStart != entries*4 {
			return nil, nil, nil, fmt.Errorf("%w: palette region is %d bytes, want %d entries", ErrMalformed, uint64(offset)-paletteStart, entries)
		}

		table = colorTable(data[paletteStart:offset])
	}

	return info, table, data[offset : uint64(offset)+pixmapLen], nil
}
