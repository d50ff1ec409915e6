package collada

import (
	"bytes"
	"encoding/xml"
	"strings"
)

const (
	indentUnit = "  "
	lineEnd    = "\n"
)

// attr is one XML attribute; values are escaped on output.
type attr struct {
	key, val string
}

func a(key, val string) attr {
	return attr{key: key, val: val}
}

// writer accumulates the document text. Every line is prefixed by the
// current indentation; push and pop move one level.
type writer struct {
	buf    bytes.Buffer
	prefix string
}

// push enters a nested block.
func (w *writer) push() {
	w.prefix += indentUnit
}

// pop leaves a nested block. Popping at the root level means a caller
// opened fewer blocks than it closed, which is a bug in the exporter.
func (w *writer) pop() {
	if len(w.prefix) < len(indentUnit) {
		panic("collada: unbalanced indentation, pop at root level")
	}
	w.prefix = w.prefix[:len(w.prefix)-len(indentUnit)]
}

// depth returns the current nesting level.
func (w *writer) depth() int {
	return len(w.prefix) / len(indentUnit)
}

func (w *writer) startTag(tag string, attrs []attr) {
	w.buf.WriteByte('<')
	w.buf.WriteString(tag)
	for _, at := range attrs {
		w.buf.WriteByte(' ')
		w.buf.WriteString(at.key)
		w.buf.WriteString(`="`)
		escape(&w.buf, at.val)
		w.buf.WriteByte('"')
	}
}

// open writes <tag ...> on its own line and enters the block.
func (w *writer) open(tag string, attrs ...attr) {
	w.buf.WriteString(w.prefix)
	w.startTag(tag, attrs)
	w.buf.WriteString(">" + lineEnd)
	w.push()
}

// close leaves the block and writes </tag>.
func (w *writer) close(tag string) {
	w.pop()
	w.buf.WriteString(w.prefix + "</" + tag + ">" + lineEnd)
}

// block writes tag around body; the closing tag is written on every exit
// path of body, including panics raised below it.
func (w *writer) block(tag string, attrs []attr, body func()) {
	w.open(tag, attrs...)
	defer w.close(tag)
	body()
}

// empty writes a self-closing element.
func (w *writer) empty(tag string, attrs ...attr) {
	w.buf.WriteString(w.prefix)
	w.startTag(tag, attrs)
	w.buf.WriteString(" />" + lineEnd)
}

// element writes <tag ...>text</tag> on one line.
func (w *writer) element(tag, text string, attrs ...attr) {
	w.buf.WriteString(w.prefix)
	w.startTag(tag, attrs)
	w.buf.WriteByte('>')
	escape(&w.buf, text)
	w.buf.WriteString("</" + tag + ">" + lineEnd)
}

// elementList writes <tag ...>v0 v1 ...</tag> where the values are
// produced by appendItem into the shared buffer.
func (w *writer) elementList(tag string, n int, appendItem func(dst []byte, i int) []byte, attrs ...attr) {
	w.buf.WriteString(w.prefix)
	w.startTag(tag, attrs)
	w.buf.WriteByte('>')
	var scratch []byte
	for i := 0; i < n; i++ {
		if i > 0 {
			w.buf.WriteByte(' ')
		}
		scratch = appendItem(scratch[:0], i)
		w.buf.Write(scratch)
	}
	w.buf.WriteString("</" + tag + ">" + lineEnd)
}

// raw writes an unindented line, used for the prolog and root element.
func (w *writer) raw(line string) {
	w.buf.WriteString(line + lineEnd)
}

func (w *writer) bytes() []byte {
	return w.buf.Bytes()
}

func escape(b *bytes.Buffer, s string) {
	if !strings.ContainsAny(s, "<>&'\"\t\n\r") {
		b.WriteString(s)
		return
	}
	_ = xml.EscapeText(b, []byte(s))
}
