// Package xmldoc provides a loosely typed XML element tree. Package
// manifests carry free-form fragments (entity payloads, action blocks)
// whose shape is only known to the component consuming them, so the
// codec keeps them as generic elements instead of concrete structs.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Element is a single XML element with its attributes, child elements
// and accumulated character data.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []Element  `xml:",any"`
	Text     string     `xml:",chardata"`
}

// New returns an element with the given local name.
func New(name string) *Element {
	return &Element{XMLName: xml.Name{Local: name}}
}

// NewText returns an element with the given local name and text content.
func NewText(name, text string) *Element {
	return &Element{XMLName: xml.Name{Local: name}, Text: text}
}

// Parse decodes a single XML fragment into an element tree.
func Parse(data []byte) (*Element, error) {
	var el Element
	if err := xml.Unmarshal(data, &el); err != nil {
		return nil, fmt.Errorf("parse xml fragment: %w", err)
	}
	return &el, nil
}

// ParseString decodes a fragment held in a string.
func ParseString(data string) (*Element, error) {
	return Parse([]byte(data))
}

// Name returns the element's local name.
func (e *Element) Name() string {
	return e.XMLName.Local
}

// Attr returns the value of the named attribute and whether it exists.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrDefault returns the named attribute value or def when absent.
func (e *Element) AttrDefault(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// AttrFold returns the value of the named attribute matched
// case-insensitively, and whether it exists.
func (e *Element) AttrFold(name string) (string, bool) {
	for _, a := range e.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attrs {
		if a.Name.Local == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// Child returns the first child element with the given local name.
func (e *Element) Child(name string) *Element {
	for i := range e.Children {
		if e.Children[i].XMLName.Local == name {
			return &e.Children[i]
		}
	}
	return nil
}

// ChildFold returns the first child element whose local name matches
// case-insensitively.
func (e *Element) ChildFold(name string) *Element {
	for i := range e.Children {
		if strings.EqualFold(e.Children[i].XMLName.Local, name) {
			return &e.Children[i]
		}
	}
	return nil
}

// ChildrenNamed returns all child elements with the given local name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for i := range e.Children {
		if e.Children[i].XMLName.Local == name {
			out = append(out, &e.Children[i])
		}
	}
	return out
}

// ChildText returns the trimmed text of the first child with the given
// name, or the empty string when the child is absent.
func (e *Element) ChildText(name string) string {
	if c := e.Child(name); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// Value returns the element's trimmed character data.
func (e *Element) Value() string {
	return strings.TrimSpace(e.Text)
}

// Add appends a copy of child and returns a pointer to the stored
// copy. Children are held by value, so the pointer is only valid until
// the parent's child list grows again: finish writing through it
// before adding further children to the same parent.
func (e *Element) Add(child *Element) *Element {
	e.Children = append(e.Children, *child)
	return &e.Children[len(e.Children)-1]
}

// AddText appends a child element carrying text content.
func (e *Element) AddText(name, text string) {
	e.Children = append(e.Children, Element{XMLName: xml.Name{Local: name}, Text: text})
}

// Remove deletes the first child with the given local name and reports
// whether a child was removed.
func (e *Element) Remove(name string) bool {
	for i := range e.Children {
		if e.Children[i].XMLName.Local == name {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Marshal renders the element tree as indented XML.
func (e *Element) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("encode xml fragment: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders the element tree as XML, or an error placeholder when
// encoding fails.
func (e *Element) String() string {
	b, err := e.Marshal()
	if err != nil {
		return fmt.Sprintf("<!-- %v -->", err)
	}
	return string(b)
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	cp := Element{XMLName: e.XMLName, Text: e.Text}
	cp.Attrs = append([]xml.Attr(nil), e.Attrs...)
	for i := range e.Children {
		cp.Children = append(cp.Children, *e.Children[i].Clone())
	}
	return &cp
}
