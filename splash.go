// Package splash decodes untrusted BMP images and renders them, centered,
// onto a caller-provided display surface. It is the pre-boot splash renderer
// of a bootloader: the image bytes come from a boot partition and are treated
// as hostile input that may be truncated, malformed, or crafted to trigger
// out-of-bounds reads. Every offset, size, and stride derived from header
// fields is validated before use.
//
// Supported are uncompressed bitmaps with a BITMAPINFOHEADER or newer DIB
// header at depths 1, 4, 8, 16, 24 and 32 bits per pixel, plus the bit-field
// compression variant at depths 16 and 32 (the masks are accepted but not
// interpreted). 32-bit images carry per-pixel alpha and are composited over
// the current surface content or the background color.
package splash

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/bmp"
)

// Standard error types for BMP splash decoding.
var (
	// ErrMalformed reports a structural inconsistency: bad signature, size
	// mismatch, out-of-bounds region, palette/pixel overlap or a stride that
	// exceeds the hard ceiling. The input cannot be trusted.
	ErrMalformed = errors.New("splash: malformed bitmap")
	// ErrUnsupported reports a well-formed bitmap that uses a feature this
	// decoder does not implement: an unknown depth, a disallowed compression
	// kind, or a DIB header older than BITMAPINFOHEADER.
	ErrUnsupported = errors.New("splash: unsupported bitmap variant")
)

// Options specifies rendering parameters.
type Options struct {
	// Background is the color used for the full-surface fill and as the
	// compositing base for 32-bit images when the surface content cannot be
	// read back. If nil, Policy is consulted; if that is also nil the
	// background is black.
	Background *RGB
	// Policy supplies a platform default background when Background is nil.
	// The bootloader installs a vendor-specific policy here (for example a
	// light gray tint on Apple firmware); the decoder only consumes it.
	Policy BackgroundPolicy
}

// background resolves the effective background color for a render.
func (o *Options) background() RGB {
	if o != nil {
		if o.Background != nil {
			return *o.Background
		}

		if o.Policy != nil {
			return o.Policy.BackgroundColor()
		}
	}

	return RGB{}
}

// Interface to check if a reader knows its remaining length.
type readerWithLen interface {
	Len() int
}

// readAllData reads data from r, pre-allocating if the size is known.
func readAllData(r io.Reader) ([]byte, error) {
	// Pre-allocate if the reader knows its remaining length. This avoids the
	// repeated growth of io.ReadAll for large images.
	if rl, ok := r.(readerWithLen); ok {
		size := rl.Len()
		if size > 0 {
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("failed to read image data: %w", err)
			}

			return data, nil
		}
	}

	// Fallback for readers that don't implement Len() (e.g., os.File) or were empty.
	return io.ReadAll(r)
}

// Render decodes content and displays it centered on surface.
//
// The sequence is: validate the headers, compute the centered placement, fill
// the surface with the background color, decode into a freshly allocated
// pixel buffer and hand the buffer to the surface. For 32-bit images the
// buffer is seeded with the surface content at the placement rectangle (when
// the surface implements SurfaceReader) or with the background color, so that
// per-pixel alpha composites against what the splash will cover.
//
// Empty content is a successful no-op: the surface is not touched. Decode
// failures are reported as ErrMalformed or ErrUnsupported before any surface
// mutation; surface errors are returned unchanged.
func Render(content []byte, surface Surface, opts *Options) error {
	if len(content) == 0 {
		return nil
	}

	info, table, pixmap, err := parseHeader(content)
	if err != nil {
		return err
	}

	background := opts.background()

	surfaceW, surfaceH := surface.Resolution()

	var xPos, yPos uint32
	if info.width < surfaceW {
		xPos = (surfaceW - info.width) / 2
	}
	if info.height < surfaceH {
		yPos = (surfaceH - info.height) / 2
	}

	if err := surface.Fill(background); err != nil {
		return err
	}

	buf := NewPixelBuffer(info.width, info.height)

	if info.depth == 32 {
		// Alpha compositing needs the pixels the splash will cover. Readback
		// is an optional surface capability; without it the fill color just
		// applied is the next best base.
		if r, ok := surface.(SurfaceReader); ok {
			prev, err := r.Readback(xPos, yPos, info.width, info.height)
			if err != nil {
				return err
			}

			copy(buf.Pix, prev.Pix)
		} else {
			buf.Flood(background)
		}
	}

	newRowDecoder(info, table, pixmap).decodeInto(buf)

	return surface.Present(buf, xPos, yPos, info.width, info.height)
}

// decodeImage runs the validated decode pipeline without a surface and
// converts the result to an RGBA image. 32-bit content is composited over
// the background color.
func decodeImage(data []byte, background RGB) (image.Image, error) {
	info, table, pixmap, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	buf := NewPixelBuffer(info.width, info.height)
	if info.depth == 32 {
		buf.Flood(background)
	}

	newRowDecoder(info, table, pixmap).decodeInto(buf)

	return buf.RGBA(), nil
}

// Decode reads a BMP image from r and returns it as an [image.Image].
// It accepts an optional Options struct whose background color is used as the
// compositing base for 32-bit images. If the bitmap is well-formed but uses an
// unsupported variant, it falls back to the golang.org/x/image/bmp decoder.
func Decode(r io.Reader, opts ...*Options) (image.Image, error) {
	data, err := readAllData(r)
	if err != nil {
		return nil, err
	}

	var o *Options
	if len(opts) > 0 {
		o = opts[0]
	}

	img, err := decodeImage(data, o.background())
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return bmp.Decode(bytes.NewReader(data))
		}

		return nil, err
	}

	return img, nil
}

// DecodeConfig returns the color model and dimensions of a BMP image.
// The whole stream is read: the file header declares a total size that must
// match the actual input length, so a header prefix alone cannot be validated.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAllData(r)
	if err != nil {
		return image.Config{}, err
	}

	info, _, _, err := parseHeader(data)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return bmp.DecodeConfig(bytes.NewReader(data))
		}

		return image.Config{}, err
	}

	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      int(info.width),
		Height:     int(info.height),
	}, nil
}

// init registers the BMP format with the standard library's image package.
// This allows image.Decode to automatically recognize and decode BMP files using this package.
func init() {
	decodeWrapper := func(r io.Reader) (image.Image, error) {
		return Decode(r)
	}

	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", decodeWrapper, DecodeConfig)
}
