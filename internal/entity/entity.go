// Package entity defines the content-management entities a package can
// carry, plus their XML wire representation.
package entity

// Macro is a reusable rendering component referenced from rich text.
type Macro struct {
	ID            int
	Key           string
	Name          string
	Alias         string
	Source        string
	UseInEditor   bool
	CacheDuration int
	CacheByMember bool
	CacheByPage   bool
	DontRender    bool
	Properties    []MacroProperty
}

// MacroProperty is a single configurable parameter on a macro.
type MacroProperty struct {
	Key         string
	Alias       string
	Name        string
	EditorAlias string
	SortOrder   int
}

// Template is a view file with an optional master it nests inside.
type Template struct {
	ID          int
	Key         string
	Alias       string
	Name        string
	MasterAlias string
	Content     string
}

// StylesheetProperty is a named rule exposed in the rich text editor.
type StylesheetProperty struct {
	Name  string
	Alias string
	Value string
}

// Stylesheet is a css file plus its editor-exposed properties.
type Stylesheet struct {
	ID         int
	Name       string
	Path       string
	Content    string
	Properties []StylesheetProperty
}

// DataType is a configured property editor instance.
type DataType struct {
	ID           int
	Key          string
	Name         string
	EditorAlias  string
	DatabaseType string
	Config       string
	ParentID     int
}

// Language is an installed culture.
type Language struct {
	ID          int
	ISOCode     string
	CultureName string
}

// DictionaryTranslation is one localized value of a dictionary item.
type DictionaryTranslation struct {
	LanguageISO string
	Value       string
}

// DictionaryItem is a translatable text entry, keyed by a unique item
// key and optionally nested under a parent item.
type DictionaryItem struct {
	ID           int
	Key          string
	ItemKey      string
	ParentKey    string
	Translations []DictionaryTranslation
}

// PropertyType is a single field definition on a document type.
type PropertyType struct {
	Key         string
	Alias       string
	Name        string
	Description string
	DataTypeKey string
	GroupName   string
	Mandatory   bool
	SortOrder   int
}

// DocumentType describes the schema of a content node. MasterAlias and
// CompositionAliases reference other document types by alias and drive
// install ordering. MediaType distinguishes media schemas, which share
// the same shape.
type DocumentType struct {
	ID                 int
	Key                string
	Alias              string
	Name               string
	Icon               string
	Thumbnail          string
	Description        string
	AllowAtRoot        bool
	MediaType          bool
	MasterAlias        string
	CompositionAliases []string
	ParentID           int
	AllowedTemplates   []string
	DefaultTemplate    string
	AllowedChildren    []string
	PropertyTypes      []PropertyType
}

// IsAllowedTemplate reports whether the alias is usable on this type.
func (d *DocumentType) IsAllowedTemplate(alias string) bool {
	for _, a := range d.AllowedTemplates {
		if a == alias {
			return true
		}
	}
	return false
}

// PropertyValue is one value of a content property, optionally bound to
// a culture. An empty culture means the value is invariant.
type PropertyValue struct {
	Culture string
	Value   string
}

// ContentProperty holds all values of a property on a content node.
type ContentProperty struct {
	Alias  string
	Values []PropertyValue
}

// Content is a published or draft content node.
type Content struct {
	ID           int
	Key          string
	Name         string
	ParentID     int
	TypeAlias    string
	Level        int
	SortOrder    int
	TemplateID   int
	CultureNames map[string]string
	Properties   []ContentProperty
}

// SetCultureName records a culture-specific node name.
func (c *Content) SetCultureName(culture, name string) {
	if c.CultureNames == nil {
		c.CultureNames = make(map[string]string)
	}
	c.CultureNames[culture] = name
}

// CultureName returns the node name for the culture, if set.
func (c *Content) CultureName(culture string) string {
	return c.CultureNames[culture]
}

// SetValue appends a property value, creating the property if needed.
func (c *Content) SetValue(alias, culture, value string) {
	for i := range c.Properties {
		if c.Properties[i].Alias == alias {
			c.Properties[i].Values = append(c.Properties[i].Values, PropertyValue{Culture: culture, Value: value})
			return
		}
	}
	c.Properties = append(c.Properties, ContentProperty{
		Alias:  alias,
		Values: []PropertyValue{{Culture: culture, Value: value}},
	})
}

// Folder is a tree container for document types or data types.
type Folder struct {
	ID       int
	Name     string
	ParentID int
}
