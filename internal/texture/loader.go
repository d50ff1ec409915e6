package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
)

// Header sizes of the MU texture containers.
const (
	ozjHeader = 24
	oztHeader = 4
)

// ErrNotFound is matched by NotFoundError.
var ErrNotFound = errors.New("texture: not found")

// NotFoundError reports a texture name the index cannot resolve.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("texture: %s not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Image is a loaded texture. Payload keeps the container's embedded file
// (JPEG for OZJ, TGA for OZT) so it can be stored without re-encoding.
type Image struct {
	Name    string
	Path    string
	Format  string // "jpg" or "tga"
	Payload []byte
	Pixels  *image.NRGBA
}

// Opaque reports whether every texel has full alpha.
func (img *Image) Opaque() bool {
	if img.Pixels == nil {
		return true
	}
	return img.Pixels.Opaque()
}

// Load reads an OZJ or OZT file and decodes it.
func Load(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	img, err := Decode(filepath.Base(path), raw)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	img.Path = path
	return img, nil
}

// Decode strips the container header of a file named name and decodes the
// image inside.
func Decode(name string, raw []byte) (*Image, error) {
	img := &Image{Name: Stem(name)}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".ozj":
		// OZJ: 24-byte header + JPEG data
		if len(raw) <= ozjHeader {
			return nil, fmt.Errorf("OZJ too short (%d bytes)", len(raw))
		}
		img.Format, img.Payload = "jpg", raw[ozjHeader:]
	case ".ozt":
		// OZT: 4-byte header + TGA data
		if len(raw) <= oztHeader {
			return nil, fmt.Errorf("OZT too short (%d bytes)", len(raw))
		}
		img.Format, img.Payload = "tga", raw[oztHeader:]
	default:
		return nil, fmt.Errorf("unknown extension %q", ext)
	}

	// The tga decoder registers an empty magic and would claim JPEG data
	// through image.Decode, so the container picks the decoder.
	decode := jpeg.Decode
	if img.Format == "tga" {
		decode = tga.Decode
	}
	src, err := decode(bytes.NewReader(img.Payload))
	if err != nil {
		return nil, err
	}
	img.Pixels = toNRGBA(src)
	return img, nil
}

// toNRGBA converts any image to NRGBA format with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}

// AverageColor returns the mean color of the texels, ignoring alpha. An
// empty image yields a neutral grey.
func AverageColor(tex *image.NRGBA) (r, g, b float32) {
	bounds := tex.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 160.0 / 255, 160.0 / 255, 170.0 / 255
	}

	var sumR, sumG, sumB float64
	for y := 0; y < h; y++ {
		off := y * tex.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			sumR += float64(tex.Pix[i])
			sumG += float64(tex.Pix[i+1])
			sumB += float64(tex.Pix[i+2])
		}
	}
	n := float64(w*h) * 255
	return float32(sumR / n), float32(sumG / n), float32(sumB / n)
}
