package packaging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/sitepack/pkg/manifest"
)

// Conflicts lists everything about a package worth warning the user
// about before installing. None of it blocks an install; the decision
// belongs to the caller.
type Conflicts struct {
	Macros           []string `yaml:"macros,omitempty"`
	Templates        []string `yaml:"templates,omitempty"`
	Stylesheets      []string `yaml:"stylesheets,omitempty"`
	UnsafeFiles      []string `yaml:"unsafeFiles,omitempty"`
	OverwrittenFiles []string `yaml:"overwrittenFiles,omitempty"`
}

// IsEmpty reports whether the analysis found nothing to warn about.
func (c *Conflicts) IsEmpty() bool {
	return len(c.Macros) == 0 && len(c.Templates) == 0 && len(c.Stylesheets) == 0 &&
		len(c.UnsafeFiles) == 0 && len(c.OverwrittenFiles) == 0
}

// Directory names and file extensions whose contents the platform
// loads as code. Shipping files there deserves an explicit warning.
var (
	unsafeDirNames   = []string{"bin", "app_code"}
	unsafeExtensions = []string{".dll", ".so"}
)

// ConflictChecker inspects a manifest against the live site without
// modifying anything.
type ConflictChecker struct {
	stores   Stores
	siteRoot string
}

// NewConflictChecker returns a checker reading the given stores and
// comparing file destinations below siteRoot.
func NewConflictChecker(stores Stores, siteRoot string) *ConflictChecker {
	return &ConflictChecker{stores: stores, siteRoot: siteRoot}
}

// Check analyzes the manifest and returns everything that would clash
// with or endanger the existing site.
func (cc *ConflictChecker) Check(m *manifest.Manifest) (*Conflicts, error) {
	c := &Conflicts{}

	for _, el := range m.Macros {
		alias := el.ChildText("alias")
		if alias == "" {
			continue
		}
		existing, err := cc.stores.Macros.GetByAlias(alias)
		if err != nil {
			return nil, fmt.Errorf("check macro %q: %w", alias, err)
		}
		if existing != nil {
			c.Macros = append(c.Macros, alias)
		}
	}

	for _, el := range m.Templates {
		// Both historical spellings of the alias element occur in the
		// wild; accept either.
		alias := el.ChildText("Alias")
		if alias == "" {
			alias = el.ChildText("alias")
		}
		if alias == "" {
			continue
		}
		existing, err := cc.stores.Templates.GetByAlias(alias)
		if err != nil {
			return nil, fmt.Errorf("check template %q: %w", alias, err)
		}
		if existing != nil {
			c.Templates = append(c.Templates, alias)
		}
	}

	for _, el := range m.Stylesheets {
		name := el.ChildText("Name")
		if name == "" {
			continue
		}
		existing, err := cc.stores.Stylesheets.GetByName(name)
		if err != nil {
			return nil, fmt.Errorf("check stylesheet %q: %w", name, err)
		}
		if existing != nil {
			c.Stylesheets = append(c.Stylesheets, name)
		}
	}

	for _, f := range m.Files {
		rel := strings.TrimPrefix(filepath.ToSlash(filepath.Join(f.OrgPath, f.OrgName)), "/")
		if isUnsafePath(rel) {
			c.UnsafeFiles = append(c.UnsafeFiles, rel)
		}
		if cc.siteRoot != "" {
			if _, err := os.Stat(filepath.Join(cc.siteRoot, filepath.FromSlash(rel))); err == nil {
				c.OverwrittenFiles = append(c.OverwrittenFiles, rel)
			}
		}
	}
	return c, nil
}

// isUnsafePath reports whether a site-relative path lands in a
// code-loading directory or carries a loadable-library extension.
// Comparison ignores case.
func isUnsafePath(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	for _, bad := range unsafeExtensions {
		if ext == bad {
			return true
		}
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	for _, seg := range strings.Split(dir, "/") {
		for _, bad := range unsafeDirNames {
			if strings.EqualFold(seg, bad) {
				return true
			}
		}
	}
	return false
}
