package packaging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bnema/sitepack/pkg/xmldoc"
)

// DefinitionFileName is the flat XML document the repository persists
// created package definitions in. InstalledFileName is its counterpart
// recording packages installed from archives.
const (
	DefinitionFileName = "created-packages.config"
	InstalledFileName  = "installed-packages.config"
)

// Repository stores package definitions in a single XML file. The
// first save of a definition assigns its id (one past the highest in
// the file) and its package and folder guids.
type Repository struct {
	mu   sync.Mutex
	path string
}

// NewRepository returns a repository of created packages below dir.
func NewRepository(dir string) *Repository {
	return &Repository{path: filepath.Join(dir, DefinitionFileName)}
}

// NewInstalledRepository returns a repository of installed packages
// below dir.
func NewInstalledRepository(dir string) *Repository {
	return &Repository{path: filepath.Join(dir, InstalledFileName)}
}

// GetAll returns every stored definition in file order.
func (r *Repository) GetAll() ([]*PackageDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// GetByID returns the definition with the given id, or nil.
func (r *Repository) GetByID(id int) (*PackageDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defs, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

// Delete removes the definition with the given id. Deleting an unknown
// id is a no-op.
func (r *Repository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defs, err := r.load()
	if err != nil {
		return err
	}
	kept := defs[:0]
	for _, d := range defs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	return r.store(kept)
}

// Save persists the definition, assigning id and guids on first save.
func (r *Repository) Save(def *PackageDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defs, err := r.load()
	if err != nil {
		return err
	}
	if def.ID == 0 {
		maxID := 0
		for _, d := range defs {
			if d.ID > maxID {
				maxID = d.ID
			}
		}
		def.ID = maxID + 1
	}
	if def.PackageGUID == "" {
		def.PackageGUID = uuid.NewString()
	}
	if def.FolderGUID == "" {
		def.FolderGUID = uuid.NewString()
	}

	replaced := false
	for i, d := range defs {
		if d.ID == def.ID {
			defs[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		defs = append(defs, def)
	}
	return r.store(defs)
}

func (r *Repository) load() ([]*PackageDefinition, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	root, err := xmldoc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	var defs []*PackageDefinition
	for _, el := range root.ChildrenNamed("package") {
		def, err := definitionFromElement(el)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (r *Repository) store(defs []*PackageDefinition) error {
	root := xmldoc.New("packages")
	for _, def := range defs {
		root.Add(definitionToElement(def))
	}
	data, err := root.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(r.path), err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

func definitionFromElement(el *xmldoc.Element) (*PackageDefinition, error) {
	id, err := strconv.Atoi(el.AttrDefault("id", "0"))
	if err != nil {
		return nil, fmt.Errorf("package element has bad id attribute: %w", err)
	}
	def := &PackageDefinition{
		ID:              id,
		PackageGUID:     el.AttrDefault("packageGuid", ""),
		FolderGUID:      el.AttrDefault("folder", ""),
		Name:            el.AttrDefault("name", ""),
		Version:         el.AttrDefault("version", ""),
		URL:             el.AttrDefault("url", ""),
		PackagePath:     el.AttrDefault("packagePath", ""),
		IconURL:         el.AttrDefault("iconUrl", ""),
		PlatformVersion: el.AttrDefault("platformVersion", ""),
		Readme:          el.ChildText("readme"),
	}
	if lic := el.Child("license"); lic != nil {
		def.License = lic.Value()
		def.LicenseURL = lic.AttrDefault("url", "")
	}
	if author := el.Child("author"); author != nil {
		def.AuthorName = author.Value()
		def.AuthorURL = author.AttrDefault("url", "")
	}
	if actions := el.Child("actions"); actions != nil && len(actions.Children) > 0 {
		def.Actions = actions.Children[0].String()
	}
	if content := el.Child("content"); content != nil {
		def.ContentNodeID = content.AttrDefault("nodeId", "")
		def.LoadChildNodes = strings.EqualFold(content.AttrDefault("loadChildNodes", "false"), "true")
	}
	def.DataTypes = splitIDs(el.ChildText("datatypes"))
	def.Languages = splitIDs(el.ChildText("languages"))
	def.DictionaryItems = splitIDs(el.ChildText("dictionaryitems"))
	def.Macros = splitIDs(el.ChildText("macros"))
	def.Templates = splitIDs(el.ChildText("templates"))
	def.DocumentTypes = splitIDs(el.ChildText("documentTypes"))
	def.MediaTypes = splitIDs(el.ChildText("mediaTypes"))
	def.Stylesheets = splitIDs(el.ChildText("stylesheets"))
	if files := el.Child("files"); files != nil {
		for _, f := range files.ChildrenNamed("file") {
			if v := f.Value(); v != "" {
				def.Files = append(def.Files, v)
			}
		}
	}
	return def, nil
}

func definitionToElement(def *PackageDefinition) *xmldoc.Element {
	el := xmldoc.New("package")
	el.SetAttr("id", strconv.Itoa(def.ID))
	el.SetAttr("version", def.Version)
	el.SetAttr("url", def.URL)
	el.SetAttr("name", def.Name)
	el.SetAttr("folder", def.FolderGUID)
	el.SetAttr("packagePath", def.PackagePath)
	el.SetAttr("iconUrl", def.IconURL)
	el.SetAttr("platformVersion", def.PlatformVersion)
	el.SetAttr("packageGuid", def.PackageGUID)

	lic := xmldoc.NewText("license", def.License)
	lic.SetAttr("url", def.LicenseURL)
	el.Add(lic)
	author := xmldoc.NewText("author", def.AuthorName)
	author.SetAttr("url", def.AuthorURL)
	el.Add(author)
	el.AddText("readme", def.Readme)

	actions := xmldoc.New("actions")
	if def.Actions != "" {
		if parsed, err := xmldoc.ParseString(def.Actions); err == nil {
			actions.Add(parsed)
		}
	}
	el.Add(actions)

	el.AddText("datatypes", joinIDs(def.DataTypes))
	el.AddText("languages", joinIDs(def.Languages))
	el.AddText("dictionaryitems", joinIDs(def.DictionaryItems))
	el.AddText("macros", joinIDs(def.Macros))
	el.AddText("templates", joinIDs(def.Templates))
	el.AddText("documentTypes", joinIDs(def.DocumentTypes))
	el.AddText("mediaTypes", joinIDs(def.MediaTypes))
	el.AddText("stylesheets", joinIDs(def.Stylesheets))

	files := xmldoc.New("files")
	for _, f := range def.Files {
		files.AddText("file", f)
	}
	el.Add(files)

	content := xmldoc.New("content")
	content.SetAttr("nodeId", def.ContentNodeID)
	content.SetAttr("loadChildNodes", strconv.FormatBool(def.LoadChildNodes))
	el.Add(content)
	return el
}

func splitIDs(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}
