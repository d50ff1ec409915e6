package trs

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"mu-bmd-collada/internal/crypto"
	"mu-bmd-collada/internal/itemlist"
)

const recordSize = 32

// Load reads ItemTRSData.bmd and merges custom_trs.json overrides. Missing
// files are not an error; an unreadable custom file is logged and skipped.
func Load(bmdPath, customJSONPath string, items []itemlist.ItemDef) (Data, error) {
	data := make(Data)

	if bmdPath != "" {
		raw, err := os.ReadFile(bmdPath)
		switch {
		case err == nil:
			data = DecodeBinary(raw)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("trs: read %s: %w", bmdPath, err)
		}
	}

	if customJSONPath == "" {
		return data, nil
	}
	raw, err := os.ReadFile(customJSONPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("trs: read %s: %w", customJSONPath, err)
		}
		return data, nil
	}
	if err := MergeCustom(data, raw, items); err != nil {
		logrus.WithField("file", customJSONPath).Warnf("ignoring custom TRS: %v", err)
	}
	return data, nil
}

// DecodeBinary parses ItemTRSData.bmd: a record count followed by 32-byte
// XOR-scrambled records (item id, position, rotation, scale).
func DecodeBinary(raw []byte) Data {
	data := make(Data)
	if len(raw) < 4 {
		return data
	}
	count := binary.LittleEndian.Uint32(raw[:4])
	off := 4
	for i := 0; i < int(count) && off+recordSize <= len(raw); i++ {
		dec := crypto.DecryptTRS(raw[off : off+recordSize])
		off += recordSize

		f := func(at int) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(dec[at : at+4])))
		}
		itemID := binary.LittleEndian.Uint32(dec[:4])
		data[[2]int{int(itemID / 512), int(itemID % 512)}] = &Entry{
			Pos:    [3]float64{f(4), f(8), f(12)},
			Rot:    [3]float64{f(16), f(20), f(24)},
			Scale:  f(28),
			Source: SourceBinary,
			FOV:    DefaultFOV,
		}
	}
	return data
}

// customFile matches the JSON schema of custom_trs.json.
type customFile struct {
	Presets  map[string]json.RawMessage `json:"presets"`
	Sections map[string]json.RawMessage `json:"sections"`
	Models   map[string]json.RawMessage `json:"models"`
	Items    map[string]json.RawMessage `json:"items"`
}

type customEntry struct {
	PosX          *float64 `json:"posX"`
	PosY          *float64 `json:"posY"`
	PosZ          *float64 `json:"posZ"`
	RotX          *float64 `json:"rotX"`
	RotY          *float64 `json:"rotY"`
	RotZ          *float64 `json:"rotZ"`
	Scale         *float64 `json:"scale"`
	Bones         *bool    `json:"bones"`
	Override      *bool    `json:"override"`
	Merge         *bool    `json:"merge"`
	Camera        *string  `json:"camera"`
	FOV           *float64 `json:"fov"`
	KeepAllMeshes *bool    `json:"keep_all_meshes"`
}

// apply copies the set fields of c onto e.
func (c *customEntry) apply(e *Entry) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&e.Pos[0], c.PosX)
	set(&e.Pos[1], c.PosY)
	set(&e.Pos[2], c.PosZ)
	set(&e.Rot[0], c.RotX)
	set(&e.Rot[1], c.RotY)
	set(&e.Rot[2], c.RotZ)
	set(&e.Scale, c.Scale)
	set(&e.FOV, c.FOV)
	if c.Bones != nil {
		e.UseBones = c.Bones
	}
	if c.Camera != nil {
		e.Camera = *c.Camera
	}
	if c.KeepAllMeshes != nil {
		e.KeepAllMeshes = *c.KeepAllMeshes
	}
}

func (c *customEntry) entry() *Entry {
	e := &Entry{Source: SourceCustom, FOV: DefaultFOV}
	c.apply(e)
	return e
}

// parseItemKeys parses "section_index" or "section_start-end" into key pairs.
func parseItemKeys(keyStr string) [][2]int {
	secStr, idxStr, ok := strings.Cut(keyStr, "_")
	if !ok {
		return nil
	}
	sec, err := strconv.Atoi(secStr)
	if err != nil {
		return nil
	}
	// Range: "72-77"
	if lo, hi, ok := strings.Cut(idxStr, "-"); ok {
		start, err1 := strconv.Atoi(lo)
		end, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || start > end {
			return nil
		}
		keys := make([][2]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			keys = append(keys, [2]int{sec, i})
		}
		return keys
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil
	}
	return [][2]int{{sec, idx}}
}

// resolveEntry resolves a json.RawMessage that is either a preset name (string)
// or an inline config object into a customEntry.
func resolveEntry(raw json.RawMessage, presets map[string]json.RawMessage) (*customEntry, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		presetRaw, ok := presets[name]
		if !ok {
			return nil, fmt.Errorf("preset %q not found", name)
		}
		raw = presetRaw
	}
	var c customEntry
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// MergeCustom applies custom_trs.json overrides to data. Precedence from
// weakest to strongest: binary records, sections, models, items. Entries that
// fail to resolve are logged and skipped.
func MergeCustom(data Data, raw []byte, items []itemlist.ItemDef) error {
	var file customFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("trs: parse custom overrides: %w", err)
	}
	log := logrus.WithField("component", "trs")

	for secStr, rawEntry := range file.Sections {
		sec, err := strconv.Atoi(secStr)
		if err != nil {
			log.Warnf("bad section key %q", secStr)
			continue
		}
		c, err := resolveEntry(rawEntry, file.Presets)
		if err != nil {
			log.Warnf("section %d: %v", sec, err)
			continue
		}
		override := c.Override != nil && *c.Override
		merge := c.Merge != nil && *c.Merge

		for _, item := range items {
			if item.Section != sec {
				continue
			}
			key := [2]int{sec, item.Index}
			switch existing := data[key]; {
			case existing == nil, override:
				data[key] = c.entry()
			case merge:
				c.apply(existing)
			}
		}
	}

	// Models: "model.bmd": preset-or-inline, or "preset": ["a.bmd", "b.bmd"]
	for key, rawEntry := range file.Models {
		var modelFiles []string
		if json.Unmarshal(rawEntry, &modelFiles) == nil && len(modelFiles) > 0 {
			c, err := resolveEntry(presetRef(key), file.Presets)
			if err != nil {
				log.Warnf("model group %s: %v", key, err)
				continue
			}
			for _, mf := range modelFiles {
				assignModel(data, items, mf, c)
			}
			continue
		}

		c, err := resolveEntry(rawEntry, file.Presets)
		if err != nil {
			log.Warnf("model %s: %v", key, err)
			continue
		}
		assignModel(data, items, key, c)
	}

	// Per-item overrides always win. "14_72-77" expands to 14_72 … 14_77.
	for keyStr, rawEntry := range file.Items {
		keys := parseItemKeys(keyStr)
		if keys == nil {
			log.Warnf("bad item key %q", keyStr)
			continue
		}
		c, err := resolveEntry(rawEntry, file.Presets)
		if err != nil {
			log.Warnf("item %s: %v", keyStr, err)
			continue
		}
		for _, key := range keys {
			data[key] = c.entry()
		}
	}
	return nil
}

func presetRef(name string) json.RawMessage {
	raw, _ := json.Marshal(name)
	return raw
}

func assignModel(data Data, items []itemlist.ItemDef, modelFile string, c *customEntry) {
	for _, item := range items {
		if strings.EqualFold(item.ModelFile, modelFile) {
			data[[2]int{item.Section, item.Index}] = c.entry()
		}
	}
}
