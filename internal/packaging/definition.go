package packaging

// PackageDefinition is a locally authored package: which entities and
// files it bundles plus its descriptive metadata. Definitions live in
// the definition repository; exporting one produces an archive.
type PackageDefinition struct {
	ID          int
	PackageGUID string
	FolderGUID  string

	Name            string
	Version         string
	URL             string
	PackagePath     string
	IconURL         string
	License         string
	LicenseURL      string
	AuthorName      string
	AuthorURL       string
	Readme          string
	PlatformVersion string

	// Actions is the raw actions fragment, stored verbatim.
	Actions string

	// ContentNodeID selects the content subtree to bundle; empty means
	// no content. LoadChildNodes bundles the node's descendants too.
	ContentNodeID  string
	LoadChildNodes bool

	DataTypes       []int
	Languages       []int
	DictionaryItems []int
	Macros          []int
	Templates       []int
	DocumentTypes   []int
	MediaTypes      []int
	Stylesheets     []int

	// Files are site-relative paths bundled into the archive.
	Files []string
}

// Saved reports whether the definition has been persisted at least
// once and is therefore exportable.
func (d *PackageDefinition) Saved() bool {
	return d.ID != 0 && d.PackageGUID != ""
}
