// Package config loads export settings from JSON, YAML or TOML files and
// merges command-line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mu-bmd-collada/internal/crypto"
)

// Config holds all configurable paths and export settings.
type Config struct {
	// Paths
	BaseDir     string `json:"base_dir" yaml:"base_dir" toml:"base_dir"`
	ItemDir     string `json:"item_dir" yaml:"item_dir" toml:"item_dir"`
	ItemListXML string `json:"item_list_xml" yaml:"item_list_xml" toml:"item_list_xml"`
	ItemBMD     string `json:"item_bmd" yaml:"item_bmd" toml:"item_bmd"`
	TRSBMD      string `json:"trs_bmd" yaml:"trs_bmd" toml:"trs_bmd"`
	CustomTRS   string `json:"custom_trs_json" yaml:"custom_trs_json" toml:"custom_trs_json"`
	OutputDir   string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	// Export settings
	Workers          int     `json:"workers" yaml:"workers" toml:"workers"`
	TextureFormat    string  `json:"texture_format" yaml:"texture_format" toml:"texture_format"`
	MaxTextureSize   int     `json:"max_texture_size" yaml:"max_texture_size" toml:"max_texture_size"`
	FrameRate        float64 `json:"frame_rate" yaml:"frame_rate" toml:"frame_rate"`
	Preview          bool    `json:"preview_rig" yaml:"preview_rig" toml:"preview_rig"`
	ApplyTRS         bool    `json:"apply_trs" yaml:"apply_trs" toml:"apply_trs"`
	DropBodyMeshes   bool    `json:"drop_body_meshes" yaml:"drop_body_meshes" toml:"drop_body_meshes"`
	DropEffectMeshes bool    `json:"drop_effect_meshes" yaml:"drop_effect_meshes" toml:"drop_effect_meshes"`
	Author           string  `json:"author" yaml:"author" toml:"author"`

	// Decryption keys in hex; empty keeps the built-in XOR key and no LEA key.
	XORKey string `json:"xor_key" yaml:"xor_key" toml:"xor_key"`
	LEAKey string `json:"lea_key" yaml:"lea_key" toml:"lea_key"`
}

// Defaults used by Resolve.
const (
	DefaultTextureFormat = "webp"
	DefaultFrameRate     = 25.0
)

// Load reads a config file. The format follows the extension: .json,
// .yaml/.yml or .toml. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir       string
	OutputDir     string
	Workers       int
	TextureFormat string
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.DataDir != "" {
		c.BaseDir = flags.DataDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.TextureFormat != "" {
		c.TextureFormat = flags.TextureFormat
	}

	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	// Relative paths are resolved against the base dir
	if c.BaseDir != "" {
		c.ItemDir = c.under(c.ItemDir, filepath.Join("Data", "Item"))
		if c.ItemListXML == "" {
			c.ItemListXML = findItemListXML(c.BaseDir)
		} else {
			c.ItemListXML = c.under(c.ItemListXML, "")
		}
		c.ItemBMD = c.under(c.ItemBMD, filepath.Join("Data", "Local", "item.bmd"))
		c.TRSBMD = c.under(c.TRSBMD, filepath.Join("Data", "Local", "itemtrsdata.bmd"))
		c.CustomTRS = c.under(c.CustomTRS, "custom_trs.json")
		c.OutputDir = c.under(c.OutputDir, filepath.Join("Data", "Item-collada"))
	}

	if c.TextureFormat == "" {
		c.TextureFormat = DefaultTextureFormat
	}
	if c.FrameRate <= 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.MaxTextureSize < 0 {
		c.MaxTextureSize = 0
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// under returns p joined to the base dir when relative, or def under the
// base dir when p is empty.
func (c *Config) under(p, def string) string {
	switch {
	case p == "":
		return filepath.Join(c.BaseDir, def)
	case filepath.IsAbs(p):
		return p
	default:
		return filepath.Join(c.BaseDir, p)
	}
}

// Keys parses the configured decryption keys.
func (c *Config) Keys() (crypto.Keys, error) {
	return crypto.ParseKeys(c.XORKey, c.LEAKey)
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.TextureFormat {
	case "webp", "png":
	default:
		return fmt.Errorf("config: unknown texture format %q", c.TextureFormat)
	}
	if _, err := c.Keys(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func detectBaseDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir), filepath.Join(dir, "..", "..")} {
			if _, err := os.Stat(filepath.Join(base, "Data", "Item")); err == nil {
				return base
			}
		}
	}

	cwd, _ := os.Getwd()
	for _, base := range []string{cwd, filepath.Dir(cwd)} {
		if _, err := os.Stat(filepath.Join(base, "Data", "Item")); err == nil {
			return base
		}
	}
	return ""
}

func findItemListXML(baseDir string) string {
	candidates := []string{
		filepath.Join(baseDir, "ItemList.xml"),
		filepath.Join(baseDir, "Data", "Xml", "ItemList.xml"),
		filepath.Join(baseDir, "Data", "xml", "ItemList.xml"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return candidates[0]
}
