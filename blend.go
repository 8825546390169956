package splash

// blendPixel composites a source word over a destination word. The low byte
// of src is alpha (0 transparent, 255 opaque); the remaining bytes are blue,
// green and red in the same XRGB layout the destination uses.
//
// Each channel computes dst + (src-dst)*alpha/255 with a half-divisor
// rounding bias, folded into the equivalent non-negative form
// (dst*(255-alpha) + src*alpha + 127) / 255 so the arithmetic never leaves
// the uint32 range. Alpha 255 reproduces the source exactly and alpha 0
// leaves the destination untouched; intermediate values cannot overflow a
// channel because both inputs and alpha are bounded by 255.
func blendPixel(dst, src uint32) uint32 {
	alpha := src & 0xff
	inv := 255 - alpha

	// Drop the alpha byte; the source channels now line up with dst.
	s := src >> 8

	sb := s & 0xff
	sg := s >> 8 & 0xff
	sr := s >> 16 & 0xff

	db := dst & 0xff
	dg := dst >> 8 & 0xff
	dr := dst >> 16 & 0xff

	r := (dr*inv + sr*alpha + 127) / 255
	g := (dg*inv + sg*alpha + 127) / 255
	b := (db*inv + sb*alpha + 127) / 255

	return r<<16 | g<<8 | b
}
