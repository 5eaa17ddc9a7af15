package packaging

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/bnema/sitepack/internal/entity"
	"github.com/bnema/sitepack/pkg/archive"
	"github.com/bnema/sitepack/pkg/logger"
	"github.com/bnema/sitepack/pkg/manifest"
	"github.com/bnema/sitepack/pkg/xmldoc"
)

// ManifestFileName is the manifest's name inside a package archive.
const ManifestFileName = "package.xml"

// Exporter turns a saved package definition into a package archive.
type Exporter struct {
	stores      Stores
	repo        *Repository
	siteRoot    string
	packagesDir string
	tempDir     string
}

// NewExporter returns an exporter reading entities from stores and
// files below siteRoot, writing archives into packagesDir and staging
// under tempDir.
func NewExporter(stores Stores, repo *Repository, siteRoot, packagesDir, tempDir string) *Exporter {
	return &Exporter{
		stores:      stores,
		repo:        repo,
		siteRoot:    siteRoot,
		packagesDir: packagesDir,
		tempDir:     tempDir,
	}
}

// Export builds the archive for a definition and returns its path. The
// definition must have been saved first. On success the archive path
// is written back onto the definition and persisted. The staging
// directory is removed on every exit path.
func (e *Exporter) Export(def *PackageDefinition) (string, error) {
	if !def.Saved() {
		return "", &ArgumentError{
			Name:   "definition",
			Reason: fmt.Sprintf("package %q must be saved before it can be exported", def.Name),
		}
	}

	staging := filepath.Join(e.tempDir, uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	m, err := e.buildManifest(def)
	if err != nil {
		return "", err
	}
	if err := e.stageFiles(def, m, staging); err != nil {
		return "", err
	}

	data, err := manifest.Encode(m)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(staging, ManifestFileName), data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	if err := os.MkdirAll(e.packagesDir, 0o755); err != nil {
		return "", fmt.Errorf("create packages directory: %w", err)
	}
	archivePath := filepath.Join(e.packagesDir, archiveFileName(def.Name, def.Version))
	if err := archive.ZipDirectory(staging, archivePath); err != nil {
		return "", err
	}

	def.PackagePath = archivePath
	if err := e.repo.Save(def); err != nil {
		return "", fmt.Errorf("record archive path: %w", err)
	}
	logger.Info("Package exported", "package", def.Name, "path", archivePath)
	return archivePath, nil
}

// archiveFileName derives the archive name from package name and
// version, with spaces flattened to underscores.
func archiveFileName(name, version string) string {
	flat := strings.ReplaceAll(strings.TrimSpace(name+"_"+version), " ", "_")
	return flat + ".zip"
}

func (e *Exporter) buildManifest(def *PackageDefinition) (*manifest.Manifest, error) {
	m := &manifest.Manifest{}
	m.Info.Package = manifest.PackageInfo{
		Name:       def.Name,
		Version:    def.Version,
		License:    def.License,
		LicenseURL: def.LicenseURL,
		URL:        def.URL,
		IconURL:    def.IconURL,
	}
	if def.PlatformVersion != "" {
		v, err := semver.NewVersion(def.PlatformVersion)
		if err != nil {
			return nil, fmt.Errorf("parse platform version %q: %w", def.PlatformVersion, err)
		}
		m.Info.Package.Requirements = manifest.Requirements{
			Major: int(v.Major()),
			Minor: int(v.Minor()),
			Patch: int(v.Patch()),
		}
	}
	m.Info.Author = manifest.AuthorInfo{Name: def.AuthorName, Website: def.AuthorURL}
	m.Info.Readme = def.Readme

	if def.Actions != "" {
		actions, err := xmldoc.ParseString(def.Actions)
		if err != nil {
			return nil, fmt.Errorf("parse actions fragment: %w", err)
		}
		m.Actions = actions
	}

	var err error
	if m.DataTypes, err = e.exportDataTypes(def.DataTypes); err != nil {
		return nil, err
	}
	if m.Languages, err = e.exportLanguages(def.Languages); err != nil {
		return nil, err
	}
	if m.DictionaryItems, err = e.exportDictionaryItems(def.DictionaryItems); err != nil {
		return nil, err
	}
	if m.Macros, err = e.exportMacros(def.Macros); err != nil {
		return nil, err
	}
	if m.Templates, err = e.exportTemplates(def.Templates); err != nil {
		return nil, err
	}
	if m.Stylesheets, err = e.exportStylesheets(def.Stylesheets); err != nil {
		return nil, err
	}
	if m.DocumentTypes, err = e.exportDocumentTypes(append(append([]int(nil), def.DocumentTypes...), def.MediaTypes...)); err != nil {
		return nil, err
	}
	if def.ContentNodeID != "" {
		set, err := e.exportContent(def.ContentNodeID, def.LoadChildNodes)
		if err != nil {
			return nil, err
		}
		if set != nil {
			m.Documents = append(m.Documents, *set)
		}
	}
	return m, nil
}

func (e *Exporter) exportDataTypes(ids []int) ([]*xmldoc.Element, error) {
	var els []*xmldoc.Element
	for _, id := range ids {
		d, err := e.stores.DataTypes.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load data type %d: %w", id, err)
		}
		if d == nil {
			logger.Warn("Data type no longer exists, leaving it out", "id", id)
			continue
		}
		folders, err := e.folderPath(FolderDataTypes, d.ParentID)
		if err != nil {
			return nil, err
		}
		els = append(els, entity.SerializeDataType(d, folders))
	}
	return els, nil
}

func (e *Exporter) exportLanguages(ids []int) ([]*xmldoc.Element, error) {
	var els []*xmldoc.Element
	for _, id := range ids {
		l, err := e.stores.Languages.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load language %d: %w", id, err)
		}
		if l == nil {
			logger.Warn("Language no longer exists, leaving it out", "id", id)
			continue
		}
		els = append(els, entity.SerializeLanguage(l))
	}
	return els, nil
}

func (e *Exporter) exportDictionaryItems(ids []int) ([]*xmldoc.Element, error) {
	var els []*xmldoc.Element
	for _, id := range ids {
		d, err := e.stores.Dictionary.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load dictionary item %d: %w", id, err)
		}
		if d == nil {
			logger.Warn("Dictionary item no longer exists, leaving it out", "id", id)
			continue
		}
		els = append(els, entity.SerializeDictionaryItem(d))
	}
	return els, nil
}

func (e *Exporter) exportMacros(ids []int) ([]*xmldoc.Element, error) {
	var els []*xmldoc.Element
	for _, id := range ids {
		mc, err := e.stores.Macros.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load macro %d: %w", id, err)
		}
		if mc == nil {
			logger.Warn("Macro no longer exists, leaving it out", "id", id)
			continue
		}
		els = append(els, entity.SerializeMacro(mc))
	}
	return els, nil
}

func (e *Exporter) exportTemplates(ids []int) ([]*xmldoc.Element, error) {
	var els []*xmldoc.Element
	for _, id := range ids {
		t, err := e.stores.Templates.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load template %d: %w", id, err)
		}
		if t == nil {
			logger.Warn("Template no longer exists, leaving it out", "id", id)
			continue
		}
		els = append(els, entity.SerializeTemplate(t))
	}
	return els, nil
}

func (e *Exporter) exportStylesheets(ids []int) ([]*xmldoc.Element, error) {
	var els []*xmldoc.Element
	for _, id := range ids {
		s, err := e.stores.Stylesheets.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load stylesheet %d: %w", id, err)
		}
		if s == nil {
			logger.Warn("Stylesheet no longer exists, leaving it out", "id", id)
			continue
		}
		els = append(els, entity.SerializeStylesheet(s))
	}
	return els, nil
}

// exportDocumentTypes serializes the selected types plus every
// ancestor and composition they depend on, so the package is
// installable on a site that has none of them.
func (e *Exporter) exportDocumentTypes(ids []int) ([]*xmldoc.Element, error) {
	byAlias := make(map[string]*entity.DocumentType)
	var order []*entity.DocumentType

	var add func(dt *entity.DocumentType) error
	add = func(dt *entity.DocumentType) error {
		if byAlias[dt.Alias] != nil {
			return nil
		}
		if dt.MasterAlias != "" {
			master, err := e.stores.DocumentTypes.GetByAlias(dt.MasterAlias)
			if err != nil {
				return fmt.Errorf("load master type %q: %w", dt.MasterAlias, err)
			}
			if master != nil {
				if err := add(master); err != nil {
					return err
				}
			}
		}
		for _, comp := range dt.CompositionAliases {
			c, err := e.stores.DocumentTypes.GetByAlias(comp)
			if err != nil {
				return fmt.Errorf("load composition %q: %w", comp, err)
			}
			if c != nil {
				if err := add(c); err != nil {
					return err
				}
			}
		}
		byAlias[dt.Alias] = dt
		order = append(order, dt)
		return nil
	}

	for _, id := range ids {
		dt, err := e.stores.DocumentTypes.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load document type %d: %w", id, err)
		}
		if dt == nil {
			logger.Warn("Document type no longer exists, leaving it out", "id", id)
			continue
		}
		if err := add(dt); err != nil {
			return nil, err
		}
	}

	var els []*xmldoc.Element
	for _, dt := range order {
		folders := ""
		if dt.MasterAlias == "" {
			var err error
			folders, err = e.folderPath(FolderDocumentTypes, dt.ParentID)
			if err != nil {
				return nil, err
			}
		}
		els = append(els, entity.SerializeDocumentType(dt, folders))
	}
	return els, nil
}

// folderPath walks the container chain upwards and renders it as a
// slash-separated path with percent-encoded segments, the inverse of
// what the installer consumes.
func (e *Exporter) folderPath(kind string, folderID int) (string, error) {
	var parts []string
	for folderID != 0 {
		f, err := e.stores.Folders.Get(kind, folderID)
		if err != nil {
			return "", fmt.Errorf("load folder %d: %w", folderID, err)
		}
		if f == nil {
			break
		}
		parts = append([]string{url.PathEscape(f.Name)}, parts...)
		folderID = f.ParentID
	}
	return strings.Join(parts, "/"), nil
}

func (e *Exporter) exportContent(nodeKey string, withChildren bool) (*manifest.DocumentSet, error) {
	root, err := e.stores.Content.GetByKey(nodeKey)
	if err != nil {
		return nil, fmt.Errorf("load content %q: %w", nodeKey, err)
	}
	if root == nil {
		logger.Warn("Content node no longer exists, leaving it out", "key", nodeKey)
		return nil, nil
	}
	el, err := e.serializeContentTree(root, withChildren)
	if err != nil {
		return nil, err
	}
	return &manifest.DocumentSet{ImportMode: "root", Roots: []*xmldoc.Element{el}}, nil
}

func (e *Exporter) serializeContentTree(c *entity.Content, withChildren bool) (*xmldoc.Element, error) {
	templateAlias := ""
	if c.TemplateID != 0 {
		t, err := e.stores.Templates.GetByID(c.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("load template %d: %w", c.TemplateID, err)
		}
		if t != nil {
			templateAlias = t.Alias
		}
	}
	el := entity.SerializeContent(c, templateAlias)
	if withChildren {
		children, err := e.stores.Content.ChildrenOf(c.ID)
		if err != nil {
			return nil, fmt.Errorf("load children of content %d: %w", c.ID, err)
		}
		for _, child := range children {
			childEl, err := e.serializeContentTree(child, true)
			if err != nil {
				return nil, err
			}
			el.Add(childEl)
		}
	}
	return el, nil
}

// stageFiles copies the definition's files into the staging directory
// and fills the manifest's file table. A base name already staged from
// another directory gets a generated unique prefix; the original
// directory and name are what the installer restores.
func (e *Exporter) stageFiles(def *PackageDefinition, m *manifest.Manifest, staging string) error {
	used := make(map[string]bool)
	for _, rel := range def.Files {
		rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
		src := filepath.Join(e.siteRoot, filepath.FromSlash(rel))
		base := filepath.Base(rel)
		stored := base
		if used[strings.ToLower(base)] {
			stored = uuid.NewString() + "_" + base
		}
		used[strings.ToLower(base)] = true

		if err := copyFile(src, filepath.Join(staging, stored)); err != nil {
			return fmt.Errorf("stage %s: %w", rel, err)
		}
		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." {
			dir = ""
		}
		m.Files = append(m.Files, manifest.FileEntry{
			Guid:    stored,
			OrgPath: dir,
			OrgName: base,
		})
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
