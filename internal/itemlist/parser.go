// Package itemlist reads the client's ItemList.xml.
package itemlist

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// xmlItemList matches the ItemList.xml schema.
type xmlItemList struct {
	XMLName  xml.Name     `xml:"ItemList"`
	Sections []xmlSection `xml:"Section"`
}

type xmlSection struct {
	Index string    `xml:"Index,attr"`
	Name  string    `xml:"Name,attr"`
	Items []xmlItem `xml:"Item"`
}

type xmlItem struct {
	Index     string `xml:"Index,attr"`
	Name      string `xml:"Name,attr"`
	ModelPath string `xml:"ModelPath,attr,omitempty"`
	ModelFile string `xml:"ModelFile,attr"`
}

// Parse reads ItemList.xml and returns all items with model files.
func Parse(xmlPath string) ([]ItemDef, error) {
	raw, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("itemlist: read %s: %w", xmlPath, err)
	}
	items, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("itemlist: parse %s: %w", xmlPath, err)
	}
	return items, nil
}

// Decode parses ItemList.xml content. Items without a model file or with a
// non-numeric index are skipped.
func Decode(raw []byte) ([]ItemDef, error) {
	var list xmlItemList
	if err := xml.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	var items []ItemDef
	for _, sec := range list.Sections {
		secIdx, err := strconv.Atoi(strings.TrimSpace(sec.Index))
		if err != nil {
			continue
		}
		for _, item := range sec.Items {
			if item.ModelFile == "" {
				continue
			}
			idx, err := strconv.Atoi(strings.TrimSpace(item.Index))
			if err != nil {
				continue
			}
			items = append(items, ItemDef{
				Section:     secIdx,
				SectionName: sec.Name,
				Index:       idx,
				Name:        item.Name,
				ModelFile:   item.ModelFile,
				ModelPath:   item.ModelPath,
			})
		}
	}
	return items, nil
}

// Filter keeps items of one section, and of one index when index >= 0. A
// negative section keeps everything.
func Filter(items []ItemDef, section, index int) []ItemDef {
	if section < 0 {
		return items
	}
	var out []ItemDef
	for _, it := range items {
		if it.Section == section && (index < 0 || it.Index == index) {
			out = append(out, it)
		}
	}
	return out
}

// ByModel returns the first item using modelFile, compared case-insensitively.
func ByModel(items []ItemDef, modelFile string) (ItemDef, bool) {
	for _, it := range items {
		if strings.EqualFold(it.ModelFile, modelFile) {
			return it, true
		}
	}
	return ItemDef{}, false
}
