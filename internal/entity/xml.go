package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/sitepack/pkg/xmldoc"
)

// Fragment parsing. Each kind has a fixed element shape; absent optional
// elements fall back to documented defaults rather than failing.

func parseBoolText(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseIntText(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ParseMacro reads a macro fragment. The legacy cache and editor flags
// are optional: useInEditor, cacheByMember and cacheByPage default to
// false, refreshRate to zero and dontRender to true.
func ParseMacro(el *xmldoc.Element) (*Macro, error) {
	alias := el.ChildText("alias")
	if alias == "" {
		return nil, fmt.Errorf("macro fragment missing alias")
	}
	m := &Macro{
		Key:           el.ChildText("key"),
		Name:          el.ChildText("name"),
		Alias:         alias,
		Source:        el.ChildText("macroSource"),
		UseInEditor:   parseBoolText(el.ChildText("useInEditor"), false),
		CacheDuration: parseIntText(el.ChildText("refreshRate"), 0),
		CacheByMember: parseBoolText(el.ChildText("cacheByMember"), false),
		CacheByPage:   parseBoolText(el.ChildText("cacheByPage"), false),
		DontRender:    parseBoolText(el.ChildText("dontRender"), true),
	}
	if props := el.Child("properties"); props != nil {
		for _, p := range props.ChildrenNamed("property") {
			mp := MacroProperty{
				Key:         p.AttrDefault("key", ""),
				Alias:       p.AttrDefault("alias", ""),
				Name:        p.AttrDefault("name", ""),
				EditorAlias: p.AttrDefault("propertyType", ""),
				SortOrder:   parseIntText(p.AttrDefault("sortOrder", ""), 0),
			}
			m.Properties = append(m.Properties, mp)
		}
	}
	return m, nil
}

// SerializeMacro renders a macro as a manifest fragment.
func SerializeMacro(m *Macro) *xmldoc.Element {
	el := xmldoc.New("macro")
	el.AddText("key", m.Key)
	el.AddText("name", m.Name)
	el.AddText("alias", m.Alias)
	el.AddText("macroSource", m.Source)
	el.AddText("useInEditor", strconv.FormatBool(m.UseInEditor))
	el.AddText("refreshRate", strconv.Itoa(m.CacheDuration))
	el.AddText("cacheByMember", strconv.FormatBool(m.CacheByMember))
	el.AddText("cacheByPage", strconv.FormatBool(m.CacheByPage))
	el.AddText("dontRender", strconv.FormatBool(m.DontRender))
	props := el.Add(xmldoc.New("properties"))
	for _, p := range m.Properties {
		pe := xmldoc.New("property")
		pe.SetAttr("key", p.Key)
		pe.SetAttr("alias", p.Alias)
		pe.SetAttr("name", p.Name)
		pe.SetAttr("propertyType", p.EditorAlias)
		pe.SetAttr("sortOrder", strconv.Itoa(p.SortOrder))
		props.Add(pe)
	}
	return el
}

// ParseTemplate reads a template fragment. Master is optional.
func ParseTemplate(el *xmldoc.Element) (*Template, error) {
	alias := el.ChildText("Alias")
	if alias == "" {
		alias = el.ChildText("alias")
	}
	if alias == "" {
		return nil, fmt.Errorf("template fragment missing alias")
	}
	name := el.ChildText("Name")
	if name == "" {
		name = el.ChildText("name")
	}
	return &Template{
		Key:         el.ChildText("Key"),
		Alias:       alias,
		Name:        name,
		MasterAlias: el.ChildText("Master"),
		Content:     childRawText(el, "Design"),
	}, nil
}

// childRawText returns untrimmed text so template markup keeps its
// leading whitespace.
func childRawText(el *xmldoc.Element, name string) string {
	if c := el.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// SerializeTemplate renders a template as a manifest fragment.
func SerializeTemplate(t *Template) *xmldoc.Element {
	el := xmldoc.New("Template")
	el.AddText("Name", t.Name)
	el.AddText("Alias", t.Alias)
	el.AddText("Key", t.Key)
	if t.MasterAlias != "" {
		el.AddText("Master", t.MasterAlias)
	}
	el.AddText("Design", t.Content)
	return el
}

// ParseStylesheet reads a stylesheet fragment.
func ParseStylesheet(el *xmldoc.Element) (*Stylesheet, error) {
	name := el.ChildText("Name")
	if name == "" {
		return nil, fmt.Errorf("stylesheet fragment missing name")
	}
	s := &Stylesheet{
		Name:    name,
		Path:    el.ChildText("FileName"),
		Content: childRawText(el, "Content"),
	}
	if props := el.Child("Properties"); props != nil {
		for _, p := range props.ChildrenNamed("Property") {
			s.Properties = append(s.Properties, StylesheetProperty{
				Name:  p.ChildText("Name"),
				Alias: p.ChildText("Alias"),
				Value: p.ChildText("Value"),
			})
		}
	}
	return s, nil
}

// SerializeStylesheet renders a stylesheet as a manifest fragment.
func SerializeStylesheet(s *Stylesheet) *xmldoc.Element {
	el := xmldoc.New("Stylesheet")
	el.AddText("Name", s.Name)
	el.AddText("FileName", s.Path)
	el.AddText("Content", s.Content)
	props := el.Add(xmldoc.New("Properties"))
	for _, p := range s.Properties {
		pe := props.Add(xmldoc.New("Property"))
		pe.AddText("Name", p.Name)
		pe.AddText("Alias", p.Alias)
		pe.AddText("Value", p.Value)
	}
	return el
}

// ParseDataType reads a data type fragment. The Folders attribute is
// handled by the installer, not here.
func ParseDataType(el *xmldoc.Element) (*DataType, error) {
	name, ok := el.Attr("Name")
	if !ok || name == "" {
		return nil, fmt.Errorf("data type fragment missing Name attribute")
	}
	key, _ := el.Attr("Key")
	if key == "" {
		return nil, fmt.Errorf("data type %q missing Key attribute", name)
	}
	d := &DataType{
		Key:          key,
		Name:         name,
		EditorAlias:  el.AttrDefault("EditorAlias", ""),
		DatabaseType: el.AttrDefault("DatabaseType", ""),
	}
	if cfg := el.Child("Configuration"); cfg != nil {
		d.Config = cfg.Value()
	}
	return d, nil
}

// SerializeDataType renders a data type as a manifest fragment. folders
// is the slash-joined container path, empty for root-level types.
func SerializeDataType(d *DataType, folders string) *xmldoc.Element {
	el := xmldoc.New("DataType")
	el.SetAttr("Name", d.Name)
	el.SetAttr("Key", d.Key)
	el.SetAttr("EditorAlias", d.EditorAlias)
	el.SetAttr("DatabaseType", d.DatabaseType)
	if folders != "" {
		el.SetAttr("Folders", folders)
	}
	if d.Config != "" {
		el.AddText("Configuration", d.Config)
	}
	return el
}

// ParseLanguage reads a language fragment.
func ParseLanguage(el *xmldoc.Element) (*Language, error) {
	iso, ok := el.Attr("CultureAlias")
	if !ok || iso == "" {
		return nil, fmt.Errorf("language fragment missing CultureAlias attribute")
	}
	return &Language{
		ISOCode:     iso,
		CultureName: el.AttrDefault("FriendlyName", iso),
	}, nil
}

// SerializeLanguage renders a language as a manifest fragment.
func SerializeLanguage(l *Language) *xmldoc.Element {
	el := xmldoc.New("Language")
	el.SetAttr("CultureAlias", l.ISOCode)
	el.SetAttr("FriendlyName", l.CultureName)
	return el
}

// ParseDictionaryItem reads one dictionary item, without recursing into
// nested children; the installer walks those to keep parent keys in
// document order.
func ParseDictionaryItem(el *xmldoc.Element) (*DictionaryItem, error) {
	itemKey, ok := el.Attr("Name")
	if !ok || itemKey == "" {
		return nil, fmt.Errorf("dictionary item fragment missing Name attribute")
	}
	d := &DictionaryItem{
		Key:     el.AttrDefault("Key", ""),
		ItemKey: itemKey,
	}
	for _, v := range el.ChildrenNamed("Value") {
		d.Translations = append(d.Translations, DictionaryTranslation{
			LanguageISO: v.AttrDefault("LanguageCultureAlias", ""),
			Value:       v.Text,
		})
	}
	return d, nil
}

// SerializeDictionaryItem renders one item, children excluded.
func SerializeDictionaryItem(d *DictionaryItem) *xmldoc.Element {
	el := xmldoc.New("DictionaryItem")
	el.SetAttr("Name", d.ItemKey)
	el.SetAttr("Key", d.Key)
	for _, t := range d.Translations {
		ve := xmldoc.New("Value")
		ve.SetAttr("LanguageCultureAlias", t.LanguageISO)
		ve.Text = t.Value
		el.Add(ve)
	}
	return el
}

// ParseDocumentType reads a document (or media) type fragment.
func ParseDocumentType(el *xmldoc.Element) (*DocumentType, error) {
	info := el.Child("Info")
	if info == nil {
		return nil, fmt.Errorf("document type fragment missing Info element")
	}
	alias := info.ChildText("Alias")
	if alias == "" {
		return nil, fmt.Errorf("document type fragment missing alias")
	}
	d := &DocumentType{
		Key:             info.ChildText("Key"),
		Alias:           alias,
		Name:            info.ChildText("Name"),
		Icon:            info.ChildText("Icon"),
		Thumbnail:       info.ChildText("Thumbnail"),
		Description:     info.ChildText("Description"),
		AllowAtRoot:     parseBoolText(info.ChildText("AllowAtRoot"), false),
		MediaType:       el.Name() == "MediaType",
		MasterAlias:     info.ChildText("Master"),
		DefaultTemplate: info.ChildText("DefaultTemplate"),
	}
	if comps := info.Child("Compositions"); comps != nil {
		for _, c := range comps.ChildrenNamed("Composition") {
			if v := c.Value(); v != "" {
				d.CompositionAliases = append(d.CompositionAliases, v)
			}
		}
	}
	if allowed := info.Child("AllowedTemplates"); allowed != nil {
		for _, t := range allowed.ChildrenNamed("Template") {
			if v := t.Value(); v != "" {
				d.AllowedTemplates = append(d.AllowedTemplates, v)
			}
		}
	}
	if structure := el.Child("Structure"); structure != nil {
		for _, c := range structure.Children {
			if v := c.Value(); v != "" {
				d.AllowedChildren = append(d.AllowedChildren, v)
			}
		}
	}
	if props := el.Child("GenericProperties"); props != nil {
		for _, p := range props.ChildrenNamed("GenericProperty") {
			d.PropertyTypes = append(d.PropertyTypes, PropertyType{
				Key:         p.ChildText("Key"),
				Alias:       p.ChildText("Alias"),
				Name:        p.ChildText("Name"),
				Description: p.ChildText("Description"),
				DataTypeKey: p.ChildText("Definition"),
				GroupName:   p.ChildText("Tab"),
				Mandatory:   parseBoolText(p.ChildText("Mandatory"), false),
				SortOrder:   parseIntText(p.ChildText("SortOrder"), 0),
			})
		}
	}
	return d, nil
}

// SerializeDocumentType renders a document or media type fragment.
// folders is the slash-joined container path for root-level types.
func SerializeDocumentType(d *DocumentType, folders string) *xmldoc.Element {
	name := "DocumentType"
	if d.MediaType {
		name = "MediaType"
	}
	el := xmldoc.New(name)
	if folders != "" && d.MasterAlias == "" {
		el.SetAttr("Folders", folders)
	}
	info := el.Add(xmldoc.New("Info"))
	info.AddText("Name", d.Name)
	info.AddText("Alias", d.Alias)
	info.AddText("Key", d.Key)
	info.AddText("Icon", d.Icon)
	info.AddText("Thumbnail", d.Thumbnail)
	info.AddText("Description", d.Description)
	info.AddText("AllowAtRoot", strconv.FormatBool(d.AllowAtRoot))
	if d.MasterAlias != "" {
		info.AddText("Master", d.MasterAlias)
	}
	if len(d.CompositionAliases) > 0 {
		comps := info.Add(xmldoc.New("Compositions"))
		for _, c := range d.CompositionAliases {
			comps.AddText("Composition", c)
		}
	}
	if len(d.AllowedTemplates) > 0 {
		allowed := info.Add(xmldoc.New("AllowedTemplates"))
		for _, t := range d.AllowedTemplates {
			allowed.AddText("Template", t)
		}
	}
	if d.DefaultTemplate != "" {
		info.AddText("DefaultTemplate", d.DefaultTemplate)
	}
	if len(d.AllowedChildren) > 0 {
		structure := el.Add(xmldoc.New("Structure"))
		for _, c := range d.AllowedChildren {
			structure.AddText(name, c)
		}
	}
	if len(d.PropertyTypes) > 0 {
		props := el.Add(xmldoc.New("GenericProperties"))
		for _, p := range d.PropertyTypes {
			pe := props.Add(xmldoc.New("GenericProperty"))
			pe.AddText("Name", p.Name)
			pe.AddText("Alias", p.Alias)
			pe.AddText("Key", p.Key)
			pe.AddText("Definition", p.DataTypeKey)
			pe.AddText("Tab", p.GroupName)
			pe.AddText("Mandatory", strconv.FormatBool(p.Mandatory))
			pe.AddText("Description", p.Description)
			pe.AddText("SortOrder", strconv.Itoa(p.SortOrder))
		}
	}
	return el
}

// IsContentNode reports whether the element is a content node rather
// than a property element. Content nodes carry an isDoc marker
// attribute; its value is irrelevant, only its presence counts.
func IsContentNode(el *xmldoc.Element) bool {
	_, ok := el.Attr("isDoc")
	return ok
}

const cultureNamePrefix = "nodeName-"

// ParseContent reads a content node element, ignoring nested content
// children; the installer recurses over those itself. The element name
// is the document type alias.
func ParseContent(el *xmldoc.Element) (*Content, error) {
	name, ok := el.Attr("nodeName")
	if !ok {
		return nil, fmt.Errorf("content node <%s> missing nodeName attribute", el.Name())
	}
	c := &Content{
		Key:       el.AttrDefault("key", ""),
		Name:      name,
		TypeAlias: el.Name(),
		Level:     parseIntText(el.AttrDefault("level", ""), 1),
		SortOrder: parseIntText(el.AttrDefault("sortOrder", ""), 0),
	}
	for _, a := range el.Attrs {
		if strings.HasPrefix(a.Name.Local, cultureNamePrefix) {
			c.SetCultureName(a.Name.Local[len(cultureNamePrefix):], a.Value)
		}
	}
	for i := range el.Children {
		child := &el.Children[i]
		if IsContentNode(child) {
			continue
		}
		culture := child.AttrDefault("lang", "")
		c.SetValue(child.Name(), culture, child.Text)
	}
	return c, nil
}

// TemplateAlias returns the template attribute of a content node.
func TemplateAlias(el *xmldoc.Element) string {
	return el.AttrDefault("template", "")
}

// SerializeContent renders a content node without children; the
// exporter nests child nodes itself. templateAlias may be empty.
func SerializeContent(c *Content, templateAlias string) *xmldoc.Element {
	el := xmldoc.New(c.TypeAlias)
	el.SetAttr("key", c.Key)
	el.SetAttr("nodeName", c.Name)
	el.SetAttr("level", strconv.Itoa(c.Level))
	el.SetAttr("sortOrder", strconv.Itoa(c.SortOrder))
	if templateAlias != "" {
		el.SetAttr("template", templateAlias)
	}
	el.SetAttr("isDoc", "")
	cultures := make([]string, 0, len(c.CultureNames))
	for culture := range c.CultureNames {
		cultures = append(cultures, culture)
	}
	sort.Strings(cultures)
	for _, culture := range cultures {
		el.SetAttr(cultureNamePrefix+culture, c.CultureNames[culture])
	}
	for _, p := range c.Properties {
		for _, v := range p.Values {
			pe := xmldoc.NewText(p.Alias, v.Value)
			if v.Culture != "" {
				pe.SetAttr("lang", v.Culture)
			}
			el.Add(pe)
		}
	}
	return el
}
