package itemlist

import "fmt"

// ItemDef holds one item parsed from ItemList.xml.
type ItemDef struct {
	Section     int
	SectionName string
	Index       int
	Name        string
	ModelFile   string // e.g. "sword04.bmd"
	ModelPath   string // client folder, e.g. Data\Item; may be empty
}

// Key returns the (section, index) pair used by TRS data.
func (d ItemDef) Key() [2]int {
	return [2]int{d.Section, d.Index}
}

// String returns "section/index name".
func (d ItemDef) String() string {
	return fmt.Sprintf("%d/%d %s", d.Section, d.Index, d.Name)
}
