// Package packaging implements the package lifecycle: conflict
// analysis, dependency-ordered installation, uninstallation, building
// and exporting. It talks to the content management system through the
// store interfaces below; implementations live elsewhere.
package packaging

import (
	"fmt"

	"github.com/bnema/sitepack/internal/entity"
)

// Folder kinds understood by the folder store.
const (
	FolderDocumentTypes = "documentTypes"
	FolderDataTypes     = "dataTypes"
)

// Lookup methods return (nil, nil) when no entity matches; an error
// means the lookup itself failed. Save assigns the ID on first save.

type MacroStore interface {
	GetByID(id int) (*entity.Macro, error)
	GetByAlias(alias string) (*entity.Macro, error)
	Save(m *entity.Macro) error
	Delete(id int) error
}

type TemplateStore interface {
	GetByID(id int) (*entity.Template, error)
	GetByAlias(alias string) (*entity.Template, error)
	Save(t *entity.Template) error
	Delete(id int) error
}

type StylesheetStore interface {
	GetByID(id int) (*entity.Stylesheet, error)
	GetByName(name string) (*entity.Stylesheet, error)
	Save(s *entity.Stylesheet) error
	Delete(id int) error
}

type DataTypeStore interface {
	GetByID(id int) (*entity.DataType, error)
	GetByKey(key string) (*entity.DataType, error)
	Save(d *entity.DataType) error
	Delete(id int) error
}

type LanguageStore interface {
	GetByID(id int) (*entity.Language, error)
	GetByISO(iso string) (*entity.Language, error)
	GetAll() ([]*entity.Language, error)
	Save(l *entity.Language) error
	Delete(id int) error
}

type DictionaryStore interface {
	GetByID(id int) (*entity.DictionaryItem, error)
	GetByItemKey(itemKey string) (*entity.DictionaryItem, error)
	Save(d *entity.DictionaryItem) error
	Delete(id int) error
}

type DocumentTypeStore interface {
	GetByID(id int) (*entity.DocumentType, error)
	GetByAlias(alias string) (*entity.DocumentType, error)
	Save(d *entity.DocumentType) error
	Delete(id int) error
}

type ContentStore interface {
	GetByID(id int) (*entity.Content, error)
	GetByKey(key string) (*entity.Content, error)
	ChildrenOf(parentID int) ([]*entity.Content, error)
	Save(c *entity.Content) error
	Delete(id int) error
}

// FolderStore manages tree containers, partitioned by kind so document
// type folders and data type folders never mix.
type FolderStore interface {
	Get(kind string, id int) (*entity.Folder, error)
	GetChild(kind string, parentID int, name string) (*entity.Folder, error)
	Save(kind string, f *entity.Folder) error
}

// Stores bundles every store the packaging engine needs.
type Stores struct {
	Macros        MacroStore
	Templates     TemplateStore
	Stylesheets   StylesheetStore
	DataTypes     DataTypeStore
	Languages     LanguageStore
	Dictionary    DictionaryStore
	DocumentTypes DocumentTypeStore
	Content       ContentStore
	Folders       FolderStore
}

// Scope is a unit of work over the stores. Everything written through
// its stores is persisted by Complete and discarded when Close runs on
// an uncompleted scope.
type Scope interface {
	Stores() Stores
	Complete() error
	Close() error
}

// ScopeProvider hands out read access and write scopes.
type ScopeProvider interface {
	ReadStores() Stores
	CreateScope() (Scope, error)
}

// ArgumentError reports a caller mistake, such as exporting a package
// definition that was never saved.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Name, e.Reason)
}
