package markup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
<div class="heading"><span> February 17, 2024 </span></div>
<!-- comment between siblings -->
<div class="group">
  <div class="item"><a>Order #A-1</a><span>one</span><span>two</span></div>
  <div class="item"><a>Order #A-2</a><span>three</span></div>
</div>
<div class="card"><div class="id"><span>Order #</span><span dir="ltr"> 113-1 </span></div></div>
`

var (
	headingSel = MustCompile(".heading")
	itemSel    = MustCompile(".item")
	spanSel    = MustCompile("span")
	idSel      = MustCompile(".id span:nth-child(2)")
	missingSel = MustCompile(".missing")
)

func TestSelectAllDocumentOrder(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	items := doc.SelectAll(itemSel)
	require.Len(t, items, 2)
	assert.Equal(t, "Order #A-1onetwo", items[0].Text())
	assert.Equal(t, "Order #A-2three", items[1].Text())

	assert.Empty(t, doc.SelectAll(missingSel))
}

func TestNextSiblingSkipsNonElements(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	heading, ok := doc.Root().First(headingSel)
	require.True(t, ok)
	assert.Equal(t, "February 17, 2024", heading.Text())

	group, ok := heading.NextSibling()
	require.True(t, ok)
	assert.Len(t, group.SelectAll(itemSel), 2)

	card, ok := group.NextSibling()
	require.True(t, ok)
	_, ok = card.NextSibling()
	assert.False(t, ok)
}

func TestNth(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	first := doc.SelectAll(itemSel)[0]

	span, ok := first.Nth(spanSel, 1)
	require.True(t, ok)
	assert.Equal(t, "two", span.Text())

	_, ok = first.Nth(spanSel, 2)
	assert.False(t, ok)

	_, ok = first.Nth(spanSel, -1)
	assert.False(t, ok)
}

func TestNthChildSelector(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	id, ok := doc.Root().First(idSel)
	require.True(t, ok)
	assert.Equal(t, "113-1", id.Text())
}

func TestZeroNode(t *testing.T) {
	var n Node

	assert.False(t, n.Exists())
	assert.Empty(t, n.Text())
	assert.Nil(t, n.SelectAll(spanSel))
	_, ok := n.First(spanSel)
	assert.False(t, ok)
	_, ok = n.NextSibling()
	assert.False(t, ok)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestParseReadError(t *testing.T) {
	_, err := Parse(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestMustCompilePanicsOnBadSelector(t *testing.T) {
	assert.Panics(t, func() { MustCompile("div[") })
}
