package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-collada/internal/crypto"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFormats(t *testing.T) {
	want := Config{
		BaseDir:        "/mu",
		Workers:        3,
		TextureFormat:  "png",
		MaxTextureSize: 512,
		FrameRate:      30,
		Preview:        true,
		Author:         "exporter",
	}

	files := map[string]string{
		"cfg.json": `{"base_dir":"/mu","workers":3,"texture_format":"png","max_texture_size":512,"frame_rate":30,"preview_rig":true,"author":"exporter"}`,
		"cfg.yaml": "base_dir: /mu\nworkers: 3\ntexture_format: png\nmax_texture_size: 512\nframe_rate: 30\npreview_rig: true\nauthor: exporter\n",
		"cfg.YML":  "base_dir: /mu\nworkers: 3\ntexture_format: png\nmax_texture_size: 512\nframe_rate: 30\npreview_rig: true\nauthor: exporter\n",
		"cfg.toml": "base_dir = \"/mu\"\nworkers = 3\ntexture_format = \"png\"\nmax_texture_size = 512\nframe_rate = 30.0\npreview_rig = true\nauthor = \"exporter\"\n",
	}
	for name, content := range files {
		cfg, err := Load(write(t, name, content))
		require.NoError(t, err, name)
		assert.Equal(t, want, cfg, name)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "config: read")

	_, err = Load(write(t, "cfg.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = Load(write(t, "cfg.json", "{"))
	assert.ErrorContains(t, err, "config: parse")

	_, err = Load(write(t, "cfg.toml", "workers = \"many\""))
	assert.ErrorContains(t, err, "config: parse")
}

func TestResolveDefaults(t *testing.T) {
	base := t.TempDir()
	cfg := Config{ItemDir: "Items", OutputDir: "/abs/out"}
	cfg.Resolve(Flags{DataDir: base})

	assert.Equal(t, base, cfg.BaseDir)
	assert.Equal(t, filepath.Join(base, "Items"), cfg.ItemDir)
	assert.Equal(t, "/abs/out", cfg.OutputDir)
	assert.Equal(t, filepath.Join(base, "ItemList.xml"), cfg.ItemListXML)
	assert.Equal(t, filepath.Join(base, "Data", "Local", "item.bmd"), cfg.ItemBMD)
	assert.Equal(t, filepath.Join(base, "Data", "Local", "itemtrsdata.bmd"), cfg.TRSBMD)
	assert.Equal(t, filepath.Join(base, "custom_trs.json"), cfg.CustomTRS)
	assert.Equal(t, DefaultTextureFormat, cfg.TextureFormat)
	assert.Equal(t, DefaultFrameRate, cfg.FrameRate)
	assert.Positive(t, cfg.Workers)
}

func TestResolveFlagsWin(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "Data", "Xml"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "Data", "Xml", "ItemList.xml"), nil, 0o644))

	cfg := Config{BaseDir: "/elsewhere", Workers: 8, TextureFormat: "webp", MaxTextureSize: -4}
	cfg.Resolve(Flags{DataDir: base, OutputDir: "out", Workers: 2, TextureFormat: "png"})

	assert.Equal(t, base, cfg.BaseDir)
	assert.Equal(t, filepath.Join(base, "out"), cfg.OutputDir)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "png", cfg.TextureFormat)
	assert.Zero(t, cfg.MaxTextureSize)
	assert.Equal(t, filepath.Join(base, "Data", "Xml", "ItemList.xml"), cfg.ItemListXML)
}

func TestKeysAndValidate(t *testing.T) {
	cfg := Config{TextureFormat: "webp"}
	keys, err := cfg.Keys()
	require.NoError(t, err)
	assert.Equal(t, crypto.DefaultKeys(), keys)
	assert.NoError(t, cfg.Validate())

	cfg.LEAKey = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	keys, err = cfg.Keys()
	require.NoError(t, err)
	require.NotNil(t, keys.LEA)
	assert.Equal(t, byte(0x11), keys.LEA[1])

	cfg.XORKey = "abc"
	assert.Error(t, cfg.Validate())

	cfg = Config{TextureFormat: "gif"}
	assert.ErrorContains(t, cfg.Validate(), "unknown texture format")
}
