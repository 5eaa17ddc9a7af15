// Package manifest models the XML document a site package is described
// by, and decodes/encodes it. Entity payload sections are kept as loose
// fragments; the installer interprets them.
package manifest

import (
	"fmt"

	"github.com/bnema/sitepack/pkg/xmldoc"
)

// RootElement is the fixed name of a package manifest's root element.
const RootElement = "sitePackage"

// Manifest is a decoded package manifest.
type Manifest struct {
	Info            Info
	Files           []FileEntry
	Macros          []*xmldoc.Element
	Templates       []*xmldoc.Element
	Stylesheets     []*xmldoc.Element
	DataTypes       []*xmldoc.Element
	Languages       []*xmldoc.Element
	DictionaryItems []*xmldoc.Element
	DocumentTypes   []*xmldoc.Element
	Documents       []DocumentSet
	Actions         *xmldoc.Element
}

// Info carries the mandatory descriptive sections of a manifest.
type Info struct {
	Package PackageInfo
	Author  AuthorInfo
	Readme  string
}

// PackageInfo describes the package itself.
type PackageInfo struct {
	Name         string
	Version      string
	License      string
	LicenseURL   string
	URL          string
	IconURL      string
	Requirements Requirements
}

// Requirements is the minimum platform version the package targets.
// Strict requirements refuse installation on older platforms; loose
// ones only warn.
type Requirements struct {
	Major  int
	Minor  int
	Patch  int
	Strict bool
}

// AuthorInfo identifies the package author.
type AuthorInfo struct {
	Name    string
	Website string
}

// FileEntry records one file shipped in the package archive. Guid is
// the stored (possibly collision-renamed) name inside the archive,
// OrgPath the destination directory and OrgName the original file name.
type FileEntry struct {
	Guid    string
	OrgPath string
	OrgName string
}

// DocumentSet is one or more trees of content nodes plus their import
// mode. The legacy format ships a single root per set, but extra roots
// are kept so no node is lost on a round trip.
type DocumentSet struct {
	ImportMode string
	Roots      []*xmldoc.Element
}

// FormatError reports a malformed manifest. It is returned before any
// entity is persisted, so a bad manifest never leaves partial state.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid package manifest: %s", e.Reason)
}

func formatErrorf(format string, args ...interface{}) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}
