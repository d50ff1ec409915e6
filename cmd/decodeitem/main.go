// Command decodeitem converts the client's encrypted Data/Local/item.bmd
// into the ItemList.xml format read by the exporter.
//
// Usage:
//
//	decodeitem [input.bmd] [output.xml]
package main

import (
	"bufio"
	"fmt"
	"os"

	"mu-bmd-collada/internal/itemlist"
)

func main() {
	inputPath := "Data/Local/item.bmd"
	outputPath := "Data/Xml/ItemList.xml"

	if len(os.Args) > 1 {
		inputPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		outputPath = os.Args[2]
	}

	items, err := itemlist.ParseBinary(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	w := bufio.NewWriter(f)
	err = itemlist.WriteXML(w, items)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}

	sections := map[int]bool{}
	for _, it := range items {
		sections[it.Section] = true
	}
	fmt.Fprintf(os.Stderr, "Decoded %d items in %d sections → %s\n", len(items), len(sections), outputPath)
}
