// Package imagefile turns embedded scene textures into image files.
package imagefile

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"mu-bmd-collada/internal/scene"
)

// Output formats for decoded texels.
const (
	FormatWebP = "webp"
	FormatPNG  = "png"
)

// Encoder writes embedded textures. Compressed payloads are stored as they
// are unless they exceed MaxSize, in which case they are decoded, shrunk and
// re-encoded in Format like raw texels.
type Encoder struct {
	Format  string
	MaxSize int
}

// Encode returns the file bytes and extension for tex.
func (e Encoder) Encode(tex *scene.Texture) ([]byte, string, error) {
	if tex.Compressed() {
		if e.MaxSize <= 0 {
			return tex.Data, tex.FormatHint, nil
		}
		codec, ok := codecs[tex.FormatHint]
		if !ok {
			return tex.Data, tex.FormatHint, nil
		}
		cfg, err := codec.config(bytes.NewReader(tex.Data))
		if err != nil {
			// Unknown payloads cannot be resized; keep them.
			return tex.Data, tex.FormatHint, nil
		}
		if cfg.Width <= e.MaxSize && cfg.Height <= e.MaxSize {
			return tex.Data, tex.FormatHint, nil
		}
		src, err := codec.decode(bytes.NewReader(tex.Data))
		if err != nil {
			return nil, "", fmt.Errorf("imagefile: decode %s: %w", tex.Name, err)
		}
		return e.encode(toNRGBA(src))
	}
	if tex.Image == nil {
		return nil, "", fmt.Errorf("imagefile: texture %q has no data", tex.Name)
	}
	return e.encode(tex.Image)
}

// codecs decode compressed payloads by their format hint. image.Decode
// cannot be used: tga registers an empty magic and claims every payload.
var codecs = map[string]struct {
	config func(io.Reader) (image.Config, error)
	decode func(io.Reader) (image.Image, error)
}{
	"jpg":  {jpeg.DecodeConfig, jpeg.Decode},
	"jpeg": {jpeg.DecodeConfig, jpeg.Decode},
	"png":  {png.DecodeConfig, png.Decode},
	"tga":  {tga.DecodeConfig, tga.Decode},
}

func (e Encoder) encode(img *image.NRGBA) ([]byte, string, error) {
	img = Downscale(img, e.MaxSize)

	var buf bytes.Buffer
	switch e.Format {
	case FormatWebP, "":
		if err := nativewebp.Encode(&buf, img, nil); err != nil {
			return nil, "", fmt.Errorf("imagefile: encode webp: %w", err)
		}
		return buf.Bytes(), FormatWebP, nil
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("imagefile: encode png: %w", err)
		}
		return buf.Bytes(), FormatPNG, nil
	default:
		return nil, "", fmt.Errorf("imagefile: unknown format %q", e.Format)
	}
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
