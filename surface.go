package splash

import "image"

// RGB is an opaque display color.
type RGB struct {
	R, G, B uint8
}

// word packs the color as an XRGB word.
func (c RGB) word() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// PixelBuffer is a decoded image: one XRGB word per pixel (blue in the low
// byte, then green and red, top byte reserved), row-major, top row first.
// The layout matches the blit pixel format of the firmware graphics output.
type PixelBuffer struct {
	Width, Height uint32
	Pix           []uint32
}

// NewPixelBuffer allocates a zeroed width×height buffer.
func NewPixelBuffer(width, height uint32) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, uint64(width)*uint64(height)),
	}
}

// Flood sets every pixel to c.
func (b *PixelBuffer) Flood(c RGB) {
	w := c.word()
	for i := range b.Pix {
		b.Pix[i] = w
	}
}

// RGBA converts the buffer to a standard library image. The reserved byte
// becomes a fully opaque alpha channel.
func (b *PixelBuffer) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(b.Width), int(b.Height)))

	for i, w := range b.Pix {
		o := 4 * i
		img.Pix[o] = uint8(w >> 16)   // R
		img.Pix[o+1] = uint8(w >> 8)  // G
		img.Pix[o+2] = uint8(w)       // B
		img.Pix[o+3] = 255            // A
	}

	return img
}

// Surface is the display capability the renderer draws to. The firmware
// graphics output sits behind it in production; tests substitute an
// in-memory implementation. Mode switching, resolution policy and the
// physical blit all belong to the implementation, not to the decoder.
type Surface interface {
	// Resolution returns the surface dimensions in pixels.
	Resolution() (width, height uint32)
	// Fill paints the entire surface with one color.
	Fill(c RGB) error
	// Present copies buf onto the surface with its top-left corner at
	// (destX, destY).
	Present(buf *PixelBuffer, destX, destY, width, height uint32) error
}

// SurfaceReader is an optional Surface upgrade for reading pixels back.
// The renderer uses it only to seed the compositing base for 32-bit images;
// surfaces that cannot read back simply composite over the background color.
type SurfaceReader interface {
	Readback(x, y, width, height uint32) (*PixelBuffer, error)
}

// BackgroundPolicy supplies a platform default background color when the
// caller does not pick one. The decision (for example, tinting by firmware
// vendor) is external glue; the renderer only asks.
type BackgroundPolicy interface {
	BackgroundColor() RGB
}

// BackgroundPolicyFunc adapts a plain function to a BackgroundPolicy.
type BackgroundPolicyFunc func() RGB

// BackgroundColor calls f.
func (f BackgroundPolicyFunc) BackgroundColor() RGB { return f() }
