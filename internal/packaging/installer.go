package packaging

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/bnema/sitepack/internal/dag"
	"github.com/bnema/sitepack/internal/entity"
	"github.com/bnema/sitepack/pkg/archive"
	"github.com/bnema/sitepack/pkg/logger"
	"github.com/bnema/sitepack/pkg/manifest"
	"github.com/bnema/sitepack/pkg/xmldoc"
)

// Installer imports manifest data into the site. Entities are created
// in a fixed kind order so every reference a later kind makes can
// already be resolved: data types, languages, dictionary items, macros,
// templates, document types, stylesheets, content.
type Installer struct {
	scopes ScopeProvider
	userID int
}

// NewInstaller returns an installer acting as the given user.
func NewInstaller(scopes ScopeProvider, userID int) *Installer {
	return &Installer{scopes: scopes, userID: userID}
}

// InstallData imports every entity section of the manifest inside one
// scope. Either all of it is persisted or none of it. The returned
// definition records what was created so the package can be
// uninstalled later.
func (in *Installer) InstallData(m *manifest.Manifest) (*InstallationSummary, *PackageDefinition, error) {
	scope, err := in.scopes.CreateScope()
	if err != nil {
		return nil, nil, fmt.Errorf("create scope: %w", err)
	}
	defer scope.Close()

	st := scope.Stores()
	summary := &InstallationSummary{
		PackageName:    m.Info.Package.Name,
		PackageVersion: m.Info.Package.Version,
	}
	def := &PackageDefinition{
		Name:       m.Info.Package.Name,
		Version:    m.Info.Package.Version,
		URL:        m.Info.Package.URL,
		IconURL:    m.Info.Package.IconURL,
		License:    m.Info.Package.License,
		LicenseURL: m.Info.Package.LicenseURL,
		AuthorName: m.Info.Author.Name,
		AuthorURL:  m.Info.Author.Website,
		Readme:     m.Info.Readme,
	}

	if summary.DataTypes, err = in.importDataTypes(st, m.DataTypes, def); err != nil {
		return nil, nil, err
	}
	if summary.Languages, err = in.importLanguages(st, m.Languages, def); err != nil {
		return nil, nil, err
	}
	if summary.DictionaryItems, err = in.importDictionaryItems(st, m.DictionaryItems, def); err != nil {
		return nil, nil, err
	}
	if summary.Macros, err = in.importMacros(st, m.Macros, def); err != nil {
		return nil, nil, err
	}
	if summary.Templates, err = in.importTemplates(st, m.Templates, def); err != nil {
		return nil, nil, err
	}
	var imported map[string]*entity.DocumentType
	if summary.DocumentTypes, imported, err = in.importDocumentTypes(st, m.DocumentTypes, def); err != nil {
		return nil, nil, err
	}
	if summary.Stylesheets, err = in.importStylesheets(st, m.Stylesheets, def); err != nil {
		return nil, nil, err
	}
	if summary.Content, err = in.importDocuments(st, m.Documents, imported, def); err != nil {
		return nil, nil, err
	}

	actions, err := manifest.ParseActions(m.Actions)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range actions {
		if a.RunAt == manifest.RunAtInstall {
			summary.Actions = append(summary.Actions, a.Alias)
		}
	}
	// Only the actions that should run again at uninstall time are
	// kept on the record.
	if undo := manifest.UndoActions(actions); len(undo) > 0 && m.Actions != nil {
		def.Actions = m.Actions.String()
	}

	if err := scope.Complete(); err != nil {
		return nil, nil, fmt.Errorf("complete scope: %w", err)
	}
	logger.Info("Package data installed",
		"package", m.Info.Package.Name,
		"entities", summary.EntityCount(),
		"user", in.userID,
	)
	return summary, def, nil
}

// InstallFiles copies the manifest's file table out of the archive into
// the site root and returns the installed site-relative paths. Missing
// archive entries do not abort the copy; they come back as a single
// *archive.MissingFilesError after everything else is in place.
func (in *Installer) InstallFiles(r *archive.Reader, m *manifest.Manifest, siteRoot string) ([]string, error) {
	targets := make([]archive.FileTarget, 0, len(m.Files))
	installed := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		targets = append(targets, archive.FileTarget{
			Name:     f.Guid,
			DestDir:  f.OrgPath,
			DestName: f.OrgName,
		})
		installed = append(installed, strings.TrimPrefix(f.OrgPath+"/"+f.OrgName, "/"))
	}
	if err := r.CopyFiles(siteRoot, targets); err != nil {
		return installed, err
	}
	return installed, nil
}

// ensureFolderPath creates the container chain described by a Folders
// attribute (slash-separated, segments percent-encoded) and returns the
// id of the deepest folder.
func ensureFolderPath(st Stores, kind, folders string) (int, error) {
	parentID := 0
	for _, part := range strings.Split(folders, "/") {
		name, err := url.PathUnescape(part)
		if err != nil {
			name = part
		}
		if name == "" {
			continue
		}
		f, err := st.Folders.GetChild(kind, parentID, name)
		if err != nil {
			return 0, fmt.Errorf("look up folder %q: %w", name, err)
		}
		if f == nil {
			f = &entity.Folder{Name: name, ParentID: parentID}
			if err := st.Folders.Save(kind, f); err != nil {
				return 0, fmt.Errorf("create folder %q: %w", name, err)
			}
		}
		parentID = f.ID
	}
	return parentID, nil
}

func (in *Installer) importDataTypes(st Stores, els []*xmldoc.Element, def *PackageDefinition) ([]string, error) {
	var names []string
	for _, el := range els {
		d, err := entity.ParseDataType(el)
		if err != nil {
			return nil, err
		}
		if folders, ok := el.Attr("Folders"); ok && folders != "" {
			parentID, err := ensureFolderPath(st, FolderDataTypes, folders)
			if err != nil {
				return nil, err
			}
			d.ParentID = parentID
		}
		existing, err := st.DataTypes.GetByKey(d.Key)
		if err != nil {
			return nil, fmt.Errorf("look up data type %q: %w", d.Key, err)
		}
		if existing != nil {
			d.ID = existing.ID
			if d.ParentID == 0 {
				d.ParentID = existing.ParentID
			}
		}
		if err := st.DataTypes.Save(d); err != nil {
			return nil, fmt.Errorf("save data type %q: %w", d.Name, err)
		}
		if existing == nil {
			def.DataTypes = append(def.DataTypes, d.ID)
		}
		names = append(names, d.Name)
	}
	return names, nil
}

func (in *Installer) importLanguages(st Stores, els []*xmldoc.Element, def *PackageDefinition) ([]string, error) {
	var names []string
	for _, el := range els {
		l, err := entity.ParseLanguage(el)
		if err != nil {
			return nil, err
		}
		existing, err := st.Languages.GetByISO(l.ISOCode)
		if err != nil {
			return nil, fmt.Errorf("look up language %q: %w", l.ISOCode, err)
		}
		if existing != nil {
			l.ID = existing.ID
		}
		if err := st.Languages.Save(l); err != nil {
			return nil, fmt.Errorf("save language %q: %w", l.ISOCode, err)
		}
		if existing == nil {
			def.Languages = append(def.Languages, l.ID)
		}
		names = append(names, l.ISOCode)
	}
	return names, nil
}

func (in *Installer) importDictionaryItems(st Stores, els []*xmldoc.Element, def *PackageDefinition) ([]string, error) {
	installed, err := installedLanguages(st)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, el := range els {
		if err := in.importDictionaryItem(st, el, "", installed, def, &names); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// importDictionaryItem imports one item and recurses into its nested
// children in document order, so a parent always exists before its
// descendants reference it.
func (in *Installer) importDictionaryItem(st Stores, el *xmldoc.Element, parentKey string, installed map[string]bool, def *PackageDefinition, names *[]string) error {
	d, err := entity.ParseDictionaryItem(el)
	if err != nil {
		return err
	}
	d.ParentKey = parentKey

	existing, err := st.Dictionary.GetByItemKey(d.ItemKey)
	if err != nil {
		return fmt.Errorf("look up dictionary item %q: %w", d.ItemKey, err)
	}
	if existing != nil {
		// Merge: only translations for languages the existing item does
		// not carry yet are added.
		merged := existing
		for _, t := range d.Translations {
			if !installed[strings.ToLower(t.LanguageISO)] {
				continue
			}
			if hasTranslation(merged, t.LanguageISO) {
				continue
			}
			merged.Translations = append(merged.Translations, t)
		}
		d = merged
	} else {
		// Children reference their parent by this key, so an item that
		// ships without one gets a generated key.
		if d.Key == "" {
			d.Key = uuid.NewString()
		}
		kept := d.Translations[:0]
		for _, t := range d.Translations {
			if installed[strings.ToLower(t.LanguageISO)] {
				kept = append(kept, t)
			} else {
				logger.Warn("Skipping dictionary translation for uninstalled language",
					"item", d.ItemKey, "language", t.LanguageISO)
			}
		}
		d.Translations = kept
	}
	if err := st.Dictionary.Save(d); err != nil {
		return fmt.Errorf("save dictionary item %q: %w", d.ItemKey, err)
	}
	if existing == nil {
		def.DictionaryItems = append(def.DictionaryItems, d.ID)
	}
	*names = append(*names, d.ItemKey)

	for _, child := range el.ChildrenNamed("DictionaryItem") {
		if err := in.importDictionaryItem(st, child, d.Key, installed, def, names); err != nil {
			return err
		}
	}
	return nil
}

func hasTranslation(d *entity.DictionaryItem, iso string) bool {
	for _, t := range d.Translations {
		if strings.EqualFold(t.LanguageISO, iso) {
			return true
		}
	}
	return false
}

func installedLanguages(st Stores) (map[string]bool, error) {
	langs, err := st.Languages.GetAll()
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	set := make(map[string]bool, len(langs))
	for _, l := range langs {
		set[strings.ToLower(l.ISOCode)] = true
	}
	return set, nil
}

func (in *Installer) importMacros(st Stores, els []*xmldoc.Element, def *PackageDefinition) ([]string, error) {
	var names []string
	for _, el := range els {
		m, err := entity.ParseMacro(el)
		if err != nil {
			return nil, err
		}
		existing, err := st.Macros.GetByAlias(m.Alias)
		if err != nil {
			return nil, fmt.Errorf("look up macro %q: %w", m.Alias, err)
		}
		if existing != nil {
			m.ID = existing.ID
			if m.Key == "" {
				m.Key = existing.Key
			}
			m.Properties = mergeMacroProperties(existing.Properties, m.Properties)
		}
		if err := st.Macros.Save(m); err != nil {
			return nil, fmt.Errorf("save macro %q: %w", m.Alias, err)
		}
		if existing == nil {
			def.Macros = append(def.Macros, m.ID)
		}
		names = append(names, m.Name)
	}
	return names, nil
}

// mergeMacroProperties upserts incoming properties by alias, keeping
// properties the package does not mention.
func mergeMacroProperties(existing, incoming []entity.MacroProperty) []entity.MacroProperty {
	merged := append([]entity.MacroProperty(nil), existing...)
	for _, p := range incoming {
		replaced := false
		for i := range merged {
			if merged[i].Alias == p.Alias {
				merged[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, p)
		}
	}
	return merged
}

// importTemplates saves templates masters-first. A master inside the
// batch orders the sort; a master outside it is left as an alias for
// the site to resolve, with a warning.
func (in *Installer) importTemplates(st Stores, els []*xmldoc.Element, def *PackageDefinition) ([]string, error) {
	batch := make(map[string]*entity.Template, len(els))
	graph := dag.New()
	var order []string
	for _, el := range els {
		t, err := entity.ParseTemplate(el)
		if err != nil {
			return nil, err
		}
		batch[t.Alias] = t
		graph.AddNode(t.Alias)
		order = append(order, t.Alias)
	}
	for _, alias := range order {
		t := batch[alias]
		if t.MasterAlias == "" {
			continue
		}
		if graph.HasNode(t.MasterAlias) {
			graph.AddDependency(alias, t.MasterAlias)
		} else {
			logger.Warn("Master template is not part of the package",
				"template", alias, "master", t.MasterAlias)
		}
	}
	sorted, err := graph.Sort()
	if err != nil {
		return nil, fmt.Errorf("order templates: %w", err)
	}

	var names []string
	for _, alias := range sorted {
		t := batch[alias]
		existing, err := st.Templates.GetByAlias(alias)
		if err != nil {
			return nil, fmt.Errorf("look up template %q: %w", alias, err)
		}
		if existing != nil {
			t.ID = existing.ID
			if t.Key == "" {
				t.Key = existing.Key
			}
		}
		if err := st.Templates.Save(t); err != nil {
			return nil, fmt.Errorf("save template %q: %w", alias, err)
		}
		if existing == nil {
			def.Templates = append(def.Templates, t.ID)
		}
		names = append(names, t.Name)
	}
	return names, nil
}

// importStylesheets creates missing stylesheets and merges editor
// properties into existing ones; existing file content is left alone.
func (in *Installer) importStylesheets(st Stores, els []*xmldoc.Element, def *PackageDefinition) ([]string, error) {
	var names []string
	for _, el := range els {
		s, err := entity.ParseStylesheet(el)
		if err != nil {
			return nil, err
		}
		existing, err := st.Stylesheets.GetByName(s.Name)
		if err != nil {
			return nil, fmt.Errorf("look up stylesheet %q: %w", s.Name, err)
		}
		if existing != nil {
			for _, p := range s.Properties {
				mergeStylesheetProperty(existing, p)
			}
			s = existing
		}
		if err := st.Stylesheets.Save(s); err != nil {
			return nil, fmt.Errorf("save stylesheet %q: %w", s.Name, err)
		}
		if existing == nil {
			def.Stylesheets = append(def.Stylesheets, s.ID)
		}
		names = append(names, s.Name)
	}
	return names, nil
}

// mergeStylesheetProperty adds the property when its alias is new and
// renames in place when the alias exists under another name.
func mergeStylesheetProperty(s *entity.Stylesheet, p entity.StylesheetProperty) {
	for i := range s.Properties {
		if s.Properties[i].Alias == p.Alias {
			if s.Properties[i].Name != p.Name {
				s.Properties[i].Name = p.Name
			}
			return
		}
	}
	s.Properties = append(s.Properties, p)
}
