package collada

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterIndentation(t *testing.T) {
	var w writer
	w.open("a", a("x", "1"))
	w.element("b", "text")
	w.empty("c")
	w.close("a")

	assert.Equal(t, "<a x=\"1\">\n  <b>text</b>\n  <c />\n</a>\n", string(w.bytes()))
	assert.Equal(t, 0, w.depth())
}

func TestWriterPopAtRootPanics(t *testing.T) {
	var w writer
	w.push()
	w.pop()
	assert.Panics(t, func() { w.pop() })
}

func TestWriterBlockClosesOnPanic(t *testing.T) {
	var w writer
	assert.Panics(t, func() {
		w.block("outer", nil, func() {
			panic("boom")
		})
	})
	assert.Equal(t, 0, w.depth())
	assert.Contains(t, string(w.bytes()), "</outer>")
}

func TestWriterEscapes(t *testing.T) {
	var w writer
	w.element("n", `a<b & "c"`, a("name", `x"y`))
	assert.Equal(t, "<n name=\"x&#34;y\">a&lt;b &amp; &#34;c&#34;</n>\n", string(w.bytes()))
}

func TestWriterElementList(t *testing.T) {
	var w writer
	w.elementList("p", 3, func(dst []byte, i int) []byte {
		return strconv.AppendInt(dst, int64(i*2), 10)
	})
	w.elementList("q", 0, nil)
	assert.Equal(t, "<p>0 2 4</p>\n<q></q>\n", string(w.bytes()))
}
