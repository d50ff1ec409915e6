package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ozj(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	buf.Write(make([]byte, ozjHeader))
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

// ozt builds an uncompressed 32-bit top-left TGA behind the 4-byte header.
func ozt(pixels []color.NRGBA, w, h int) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, oztHeader))
	hdr := make([]byte, 18)
	hdr[2] = 2
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = 32
	hdr[17] = 0x28
	buf.Write(hdr)
	for _, p := range pixels {
		buf.Write([]byte{p.B, p.G, p.R, p.A})
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "sword01", Stem(`Data\Item\Texture\Sword01.JPG`))
	assert.Equal(t, "sword01", Stem("sword01.tga"))
	assert.Equal(t, "x", Stem("x"))
}

func TestIndexPrefersOZT(t *testing.T) {
	idx := NewIndex()
	assert.True(t, idx.Add("/a/texture/Skin.OZJ"))
	assert.True(t, idx.Add("/a/texture/skin.ozt"))
	assert.False(t, idx.Add("/b/texture/skin.ozj"))
	assert.False(t, idx.Add("/a/readme.txt"))

	path, ok := idx.ResolvePath(`Item\skin.jpg`)
	require.True(t, ok)
	assert.Equal(t, "/a/texture/skin.ozt", path)
	assert.Equal(t, 1, idx.Len())

	_, ok = idx.ResolvePath("missing.jpg")
	assert.False(t, ok)
}

func TestBuildIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "texture", "blade.ozj"), []byte("x"))
	writeFile(t, filepath.Join(dir, "Jewel", "Texture", "gem.ozt"), []byte("x"))
	writeFile(t, filepath.Join(dir, "loose.OZJ"), []byte("x"))
	writeFile(t, filepath.Join(dir, "Sword01.bmd"), []byte("x"))

	idx := BuildIndex(dir)
	assert.Equal(t, 3, idx.Len())
	for _, name := range []string{"blade.jpg", "gem.tga", "LOOSE.jpg"} {
		_, ok := idx.ResolvePath(name)
		assert.True(t, ok, name)
	}
}

func TestBuildIndexSeveralDirs(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(a, "texture", "blade.ozj"), []byte("x"))
	writeFile(t, filepath.Join(b, "texture", "blade.ozj"), []byte("x"))
	writeFile(t, filepath.Join(b, "hilt.ozt"), []byte("x"))

	idx := BuildIndex(a, b, a)
	assert.Equal(t, 2, idx.Len())
	path, ok := idx.ResolvePath("blade.jpg")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(a, "texture", "blade.ozj"), path)
	_, ok = idx.ResolvePath("hilt.tga")
	assert.True(t, ok)
}

func TestDecodeOZJ(t *testing.T) {
	raw := ozj(t, 4, 2, color.NRGBA{200, 40, 40, 255})
	img, err := Decode("Blade.ozj", raw)
	require.NoError(t, err)

	assert.Equal(t, "blade", img.Name)
	assert.Equal(t, "jpg", img.Format)
	assert.Equal(t, raw[ozjHeader:], img.Payload)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Pixels.Rect)
	assert.True(t, img.Opaque())

	r, g, b := AverageColor(img.Pixels)
	assert.InDelta(t, 200.0/255, r, 0.05)
	assert.InDelta(t, 40.0/255, g, 0.05)
	assert.InDelta(t, 40.0/255, b, 0.05)
}

func TestDecodeOZT(t *testing.T) {
	raw := ozt([]color.NRGBA{{255, 0, 0, 255}, {0, 0, 255, 0}}, 2, 1)
	img, err := Decode("glow.ozt", raw)
	require.NoError(t, err)

	assert.Equal(t, "tga", img.Format)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Pixels.Rect)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, img.Pixels.NRGBAAt(0, 0))
	assert.False(t, img.Opaque())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("short.ozj", make([]byte, ozjHeader))
	assert.ErrorContains(t, err, "too short")

	_, err = Decode("short.ozt", []byte{1, 2, 3})
	assert.ErrorContains(t, err, "too short")

	_, err = Decode("file.png", []byte("whatever"))
	assert.ErrorContains(t, err, "unknown extension")

	_, err = Decode("bad.ozj", append(make([]byte, ozjHeader), "not a jpeg"...))
	assert.Error(t, err)
}

func TestLoadWrapsPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.ozj"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "texture: read")
}

func TestCacheResolve(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "texture", "blade.ozj")
	bad := filepath.Join(dir, "texture", "broken.ozt")
	writeFile(t, good, ozj(t, 2, 2, color.NRGBA{10, 20, 30, 255}))
	writeFile(t, bad, []byte{0, 0})

	c := NewCache(BuildIndex(dir))

	var wg sync.WaitGroup
	results := make([]*Image, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := c.Resolve(`Item\Blade.jpg`)
			assert.NoError(t, err)
			results[i] = img
		}(i)
	}
	wg.Wait()
	for _, img := range results[1:] {
		assert.Same(t, results[0], img)
	}
	assert.Equal(t, good, results[0].Path)

	_, err := c.Resolve("broken.tga")
	assert.ErrorContains(t, err, "too short")
	_, err = c.Resolve("broken.tga")
	assert.Error(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = c.Resolve("nothing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, c.Len())
}

func TestAverageColorEmpty(t *testing.T) {
	r, g, b := AverageColor(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.InDelta(t, 160.0/255, r, 1e-6)
	assert.InDelta(t, 160.0/255, g, 1e-6)
	assert.InDelta(t, 170.0/255, b, 1e-6)
}
