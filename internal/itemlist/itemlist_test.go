package itemlist

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="utf-8"?>
<ItemList>
  <Section Index="0" Name="Swords">
    <Item Index="0" Name="Kris" ModelFile="Sword01.bmd"/>
    <Item Index="1" Name="Short Sword" ModelFile="Sword02.bmd"/>
    <Item Index="2" Name="No Model"/>
    <Item Index="x" Name="Bad" ModelFile="Bad.bmd"/>
  </Section>
  <Section Index="5" Name="Staffs">
    <Item Index=" 3 " Name="Serpent Staff" ModelFile="Staff04.bmd"/>
  </Section>
  <Section Index="?" Name="Broken">
    <Item Index="0" Name="Lost" ModelFile="Lost.bmd"/>
  </Section>
</ItemList>`

func TestDecode(t *testing.T) {
	items, err := Decode([]byte(sampleXML))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, ItemDef{Section: 0, SectionName: "Swords", Index: 1, Name: "Short Sword", ModelFile: "Sword02.bmd"}, items[1])
	assert.Equal(t, 3, items[2].Index)
	assert.Equal(t, [2]int{5, 3}, items[2].Key())
	assert.Equal(t, "5/3 Serpent Staff", items[2].String())
}

func TestFilter(t *testing.T) {
	items, err := Decode([]byte(sampleXML))
	require.NoError(t, err)

	assert.Len(t, Filter(items, -1, 7), 3)
	assert.Len(t, Filter(items, 0, -1), 2)
	only := Filter(items, 0, 1)
	require.Len(t, only, 1)
	assert.Equal(t, "Sword02.bmd", only[0].ModelFile)
	assert.Empty(t, Filter(items, 9, -1))
}

func TestByModel(t *testing.T) {
	items, err := Decode([]byte(sampleXML))
	require.NoError(t, err)

	it, ok := ByModel(items, "staff04.BMD")
	require.True(t, ok)
	assert.Equal(t, "Serpent Staff", it.Name)

	_, ok = ByModel(items, "none.bmd")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ItemList.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))
	items, err := Parse(path)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.xml"))
	assert.ErrorContains(t, err, "itemlist: read")

	require.NoError(t, os.WriteFile(path, []byte("<ItemList><Section>"), 0o644))
	_, err = Parse(path)
	assert.ErrorContains(t, err, "itemlist: parse")
}

// itemBMD builds an item.bmd with 704-byte records, the current client size.
func itemBMD(recs ...[3]string) []byte {
	const size = 704
	raw := make([]byte, 4, 8+len(recs)*size)
	binary.LittleEndian.PutUint32(raw, uint32(len(recs)))
	for i, r := range recs {
		rec := make([]byte, size)
		binary.LittleEndian.PutUint16(rec[offSection:], uint16(i%2*5))
		binary.LittleEndian.PutUint16(rec[offIndex:], uint16(10+i))
		copy(rec[offFolder:], `Data\Item\`)
		copy(rec[offFile:], r[0])
		copy(rec[offName:], r[1])
		copy(rec[offName+len(r[1])+1:], r[2]) // junk after the terminator
		for j := range rec {
			rec[j] ^= itemKey[j%3]
		}
		raw = append(raw, rec...)
	}
	return append(raw, 0, 0, 0, 0)
}

func TestDecodeBinary(t *testing.T) {
	raw := itemBMD(
		[3]string{"Sword01.bmd", "Kris", "zz"},
		[3]string{"", "Unused", ""},
		[3]string{"Staff04.bmd", "Caf\xe9 Staff", ""},
	)
	items, err := DecodeBinary(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, ItemDef{
		Section: 0, SectionName: "Swords", Index: 10, Name: "Kris",
		ModelFile: "Sword01.bmd", ModelPath: `Data\Item\`,
	}, items[0])
	assert.Equal(t, "Café Staff", items[1].Name)
	assert.Equal(t, [2]int{0, 12}, items[1].Key())
}

func TestDecodeBinaryShort(t *testing.T) {
	_, err := DecodeBinary([]byte{1, 0})
	assert.ErrorIs(t, err, ErrShortItemFile)

	raw := make([]byte, 108)
	raw[0] = 1
	_, err = DecodeBinary(raw)
	assert.ErrorIs(t, err, ErrShortItemFile)
}

func TestWriteXMLReadsBack(t *testing.T) {
	items := []ItemDef{
		{Section: 5, SectionName: "Staffs", Index: 3, Name: "Serpent & Staff", ModelFile: "Staff04.bmd"},
		{Section: 0, Index: 1, Name: "Short Sword", ModelFile: "Sword02.bmd", ModelPath: `Data\Item\`},
		{Section: 5, SectionName: "Staffs", Index: 1, Name: "Skull Staff", ModelFile: "Staff02.bmd"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, items))
	assert.Contains(t, buf.String(), `Name="Swords"`)

	back, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, back, 3)
	assert.Equal(t, "Short Sword", back[0].Name)
	assert.Equal(t, "Swords", back[0].SectionName)
	assert.Equal(t, `Data\Item\`, back[0].ModelPath)
	assert.Equal(t, "Serpent & Staff", back[1].Name)
	assert.Equal(t, 1, back[2].Index)
}
