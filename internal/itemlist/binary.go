package itemlist

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// item.bmd record layout. Records follow a 4-byte count and are followed by
// a 4-byte checksum; each record is XOR-scrambled with a 3-byte key.
const (
	offSection  = 4
	offIndex    = 6
	offFolder   = 8
	offFile     = 268
	offName     = 528
	pathLen     = 260
	nameLen     = 64
	minRecordSz = offName + nameLen
)

var itemKey = [3]byte{0xFC, 0xCF, 0xAB}

// ErrShortItemFile is returned when item.bmd is too small to hold its
// records.
var ErrShortItemFile = errors.New("itemlist: item file too short")

// SectionNames are the client's default names for item sections.
var SectionNames = map[int]string{
	0: "Swords", 1: "Axes", 2: "Maces and Scepters", 3: "Spears",
	4: "Bows and Crossbows", 5: "Staffs", 6: "Shields",
	7: "Helmets", 8: "Armors", 9: "Pants", 10: "Gloves", 11: "Boots",
	12: "Pets and Rings and Misc", 13: "Jewel and Misc",
	14: "Wings and Orbs and Spheres", 15: "Scrolls", 16: "Muuns",
	19: "Uncategorized", 20: "Uncategorized", 21: "Cloaks",
}

// ParseBinary reads the client's encrypted item.bmd.
func ParseBinary(path string) ([]ItemDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("itemlist: read %s: %w", path, err)
	}
	items, err := DecodeBinary(raw)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return items, nil
}

// DecodeBinary parses item.bmd content. The record size is derived from the
// file size, so client revisions with longer records decode too. Records
// without a model file are skipped, like in Decode.
func DecodeBinary(raw []byte) ([]ItemDef, error) {
	if len(raw) < 8 {
		return nil, ErrShortItemFile
	}
	count := int(binary.LittleEndian.Uint32(raw))
	if count <= 0 {
		return nil, nil
	}
	size := (len(raw) - 8) / count
	if size < minRecordSz {
		return nil, fmt.Errorf("%w: %d records of %d bytes", ErrShortItemFile, count, size)
	}

	var items []ItemDef
	rec := make([]byte, size)
	for i, off := 0, 4; i < count; i, off = i+1, off+size {
		for j, b := range raw[off : off+size] {
			rec[j] = b ^ itemKey[j%3]
		}
		file := cString(rec[offFile : offFile+pathLen])
		if file == "" {
			continue
		}
		sec := int(binary.LittleEndian.Uint16(rec[offSection:]))
		items = append(items, ItemDef{
			Section:     sec,
			SectionName: sectionName(sec),
			Index:       int(binary.LittleEndian.Uint16(rec[offIndex:])),
			Name:        cString(rec[offName : offName+nameLen]),
			ModelPath:   cString(rec[offFolder : offFolder+pathLen]),
			ModelFile:   file,
		})
	}
	return items, nil
}

// cString decodes a NUL-terminated Windows-1252 field.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.TrimSpace(string(b))
	}
	return strings.TrimSpace(string(decoded))
}

func sectionName(sec int) string {
	if name, ok := SectionNames[sec]; ok {
		return name
	}
	return fmt.Sprintf("Section%d", sec)
}

// WriteXML writes items in the ItemList.xml layout Decode reads, sections
// in ascending order and items in their given order.
func WriteXML(w io.Writer, items []ItemDef) error {
	bySection := make(map[int]*xmlSection)
	var order []int
	for _, it := range items {
		sec, ok := bySection[it.Section]
		if !ok {
			name := it.SectionName
			if name == "" {
				name = sectionName(it.Section)
			}
			sec = &xmlSection{Index: strconv.Itoa(it.Section), Name: name}
			bySection[it.Section] = sec
			order = append(order, it.Section)
		}
		sec.Items = append(sec.Items, xmlItem{
			Index:     strconv.Itoa(it.Index),
			Name:      it.Name,
			ModelPath: it.ModelPath,
			ModelFile: it.ModelFile,
		})
	}
	sort.Ints(order)

	list := xmlItemList{Sections: make([]xmlSection, 0, len(order))}
	for _, s := range order {
		list.Sections = append(list.Sections, *bySection[s])
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(list); err != nil {
		return fmt.Errorf("itemlist: encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
