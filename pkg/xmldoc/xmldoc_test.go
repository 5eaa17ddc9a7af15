package xmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndNavigate(t *testing.T) {
	el, err := ParseString(`<root a="1" B="two"><child name="x">hello</child><child name="y"/><other/></root>`)
	require.NoError(t, err)

	assert.Equal(t, "root", el.Name())

	v, ok := el.Attr("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = el.Attr("b")
	assert.False(t, ok)
	v, ok = el.AttrFold("b")
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	child := el.Child("child")
	require.NotNil(t, child)
	assert.Equal(t, "hello", child.Value())
	assert.Equal(t, "x", child.AttrDefault("name", ""))

	assert.Len(t, el.ChildrenNamed("child"), 2)
	assert.Nil(t, el.Child("missing"))
	assert.Equal(t, "", el.ChildText("missing"))
}

func TestChildFold(t *testing.T) {
	el, err := ParseString(`<root><ACTIONS><Action alias="a"/></ACTIONS></root>`)
	require.NoError(t, err)
	assert.Nil(t, el.Child("Actions"))
	assert.NotNil(t, el.ChildFold("Actions"))
}

func TestRoundTrip(t *testing.T) {
	in := `<pkg version="2"><name>demo</name><items><item id="1">a</item><item id="2">b</item></items></pkg>`
	el, err := ParseString(in)
	require.NoError(t, err)

	out, err := el.Marshal()
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "2", again.AttrDefault("version", ""))
	assert.Equal(t, "demo", again.ChildText("name"))
	assert.Len(t, again.Child("items").ChildrenNamed("item"), 2)
}

func TestBuildAndMutate(t *testing.T) {
	el := New("doc")
	el.SetAttr("id", "7")
	el.SetAttr("id", "8")
	el.AddText("title", "hi")
	el.Add(NewText("body", "text"))

	assert.Equal(t, "8", el.AttrDefault("id", ""))
	assert.Equal(t, "hi", el.ChildText("title"))

	assert.True(t, el.Remove("title"))
	assert.False(t, el.Remove("title"))
	assert.Nil(t, el.Child("title"))
}

func TestAddWriteBeforeSiblings(t *testing.T) {
	// The pointer Add returns is written through before the parent
	// grows again; the finished child survives later appends intact.
	root := New("root")
	first := root.Add(New("section"))
	first.SetAttr("name", "a")
	first.AddText("entry", "one")
	for i := 0; i < 16; i++ {
		root.Add(New("section"))
	}

	sections := root.ChildrenNamed("section")
	require.Len(t, sections, 17)
	assert.Equal(t, "a", sections[0].AttrDefault("name", ""))
	assert.Equal(t, "one", sections[0].ChildText("entry"))
}

func TestClone(t *testing.T) {
	el, err := ParseString(`<a x="1"><b>v</b></a>`)
	require.NoError(t, err)
	cp := el.Clone()
	cp.SetAttr("x", "2")
	cp.Child("b").Text = "changed"

	assert.Equal(t, "1", el.AttrDefault("x", ""))
	assert.Equal(t, "v", el.ChildText("b"))
}
