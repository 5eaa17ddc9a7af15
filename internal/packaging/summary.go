package packaging

// InstallationSummary lists what a package installation created or
// updated, by display name per kind.
type InstallationSummary struct {
	PackageName     string   `yaml:"package"`
	PackageVersion  string   `yaml:"version"`
	DataTypes       []string `yaml:"dataTypes,omitempty"`
	Languages       []string `yaml:"languages,omitempty"`
	DictionaryItems []string `yaml:"dictionaryItems,omitempty"`
	Macros          []string `yaml:"macros,omitempty"`
	Templates       []string `yaml:"templates,omitempty"`
	DocumentTypes   []string `yaml:"documentTypes,omitempty"`
	Stylesheets     []string `yaml:"stylesheets,omitempty"`
	Content         []string `yaml:"content,omitempty"`
	Files           []string `yaml:"files,omitempty"`
	Actions         []string `yaml:"actions,omitempty"`
}

// EntityCount returns the number of entities the installation touched,
// files and actions excluded.
func (s *InstallationSummary) EntityCount() int {
	return len(s.DataTypes) + len(s.Languages) + len(s.DictionaryItems) +
		len(s.Macros) + len(s.Templates) + len(s.DocumentTypes) +
		len(s.Stylesheets) + len(s.Content)
}

// UninstallationSummary lists what an uninstallation removed.
type UninstallationSummary struct {
	PackageName     string   `yaml:"package"`
	Content         []string `yaml:"content,omitempty"`
	DocumentTypes   []string `yaml:"documentTypes,omitempty"`
	Templates       []string `yaml:"templates,omitempty"`
	Stylesheets     []string `yaml:"stylesheets,omitempty"`
	Macros          []string `yaml:"macros,omitempty"`
	DictionaryItems []string `yaml:"dictionaryItems,omitempty"`
	Languages       []string `yaml:"languages,omitempty"`
	DataTypes       []string `yaml:"dataTypes,omitempty"`
}

// EntityCount returns the number of entities removed.
func (s *UninstallationSummary) EntityCount() int {
	return len(s.Content) + len(s.DocumentTypes) + len(s.Templates) +
		len(s.Stylesheets) + len(s.Macros) + len(s.DictionaryItems) +
		len(s.Languages) + len(s.DataTypes)
}
