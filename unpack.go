package splash

// rowDecoder walks the encoded pixel data one storage row at a time and
// produces XRGB words. BMP stores the bottom row first, so storage row y
// lands in output row height-y-1. The cursor advances by the full padded
// stride after every row, regardless of how many bytes the depth-specific
// decode logically consumed, so the next row always starts on its 32-bit
// boundary.
type rowDecoder struct {
	info   *bmpInfo
	table  colorTable
	pixmap []byte
	stride uint64
	off    uint64 // start of the current storage row within pixmap
}

// newRowDecoder returns a decoder over pixmap, which must already be the
// bounds-checked view produced by parseHeader.
func newRowDecoder(info *bmpInfo, table colorTable, pixmap []byte) *rowDecoder {
	return &rowDecoder{
		info:   info,
		table:  table,
		pixmap: pixmap,
		stride: info.stride(),
	}
}

// decodeInto populates buf top-down from the bottom-up storage rows.
// For depth 32 each decoded pixel is composited over the word already in buf;
// every other depth overwrites the buffer outright.
func (d *rowDecoder) decodeInto(buf *PixelBuffer) {
	// A zero-width image passes validation with a stride of zero, which lets
	// any height through the pixel-data size ceiling. Its rows hold nothing,
	// so don't walk them; a declared height of 2^32-1 would spin here for
	// seconds otherwise.
	if d.info.width == 0 || d.info.height == 0 {
		return
	}

	width := uint64(d.info.width)

	for sy := uint64(0); sy < uint64(d.info.height); sy++ {
		row := d.pixmap[d.off : d.off+d.stride]
		dst := buf.Pix[(uint64(d.info.height)-sy-1)*width:][:width]

		d.decodeRow(row, dst)

		d.off += d.stride
	}
}

// decodeRow decodes one storage row into dst, left to right.
func (d *rowDecoder) decodeRow(row []byte, dst []uint32) {
	switch d.info.depth {
	case 1:
		// Eight pixels per byte, most significant bit first.
		for x := range dst {
			bit := (row[x>>3] >> (7 - x&7)) & 1
			dst[x] = d.table.word(uint32(bit))
		}

	case 4:
		// High nibble first. For an odd width the final low nibble of the
		// last byte is padding and is never emitted.
		for x := range dst {
			b := row[x>>1]
			if x&1 == 0 {
				dst[x] = d.table.word(uint32(b >> 4))
			} else {
				dst[x] = d.table.word(uint32(b & 0x0f))
			}
		}

	case 8:
		for x := range dst {
			dst[x] = d.table.word(uint32(row[x]))
		}

	case 16:
		// Little-endian 5-5-5 with bit 15 ignored. Each channel is shifted
		// into the high bits of its byte; the low bits stay zero, so full
		// intensity comes out as 0xf8, not 0xff. That matches the rendered
		// output this decoder replaces and is kept deliberately.
		for x := range dst {
			v := readUint16(row[2*x:])

			r := uint32(v&0x7c00) >> 7
			g := uint32(v&0x03e0) >> 2
			b := uint32(v&0x001f) << 3

			dst[x] = r<<16 | g<<8 | b
		}

	case 24:
		// Storage order is blue, green, red.
		for x := range dst {
			o := 3 * x
			dst[x] = uint32(row[o+2])<<16 | uint32(row[o+1])<<8 | uint32(row[o])
		}

	case 32:
		// The low byte of the little-endian word is alpha, the rest already
		// matches the XRGB buffer layout. Composite over the existing
		// content rather than copying.
		for x := range dst {
			dst[x] = blendPixel(dst[x], readUint32(row[4*x:]))
		}
	}
}
