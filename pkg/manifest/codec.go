package manifest

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bnema/sitepack/pkg/xmldoc"
)

// Decode reads a manifest document. Structural problems yield a
// *FormatError; the four descriptive sections (info, package, author,
// requirements) are mandatory, entity sections are optional.
func Decode(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a manifest document held in memory.
func DecodeBytes(data []byte) (*Manifest, error) {
	root, err := xmldoc.Parse(data)
	if err != nil {
		return nil, formatErrorf("not well-formed xml: %v", err)
	}
	return fromElement(root)
}

// DecodeFile reads a manifest document from disk.
func DecodeFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func fromElement(root *xmldoc.Element) (*Manifest, error) {
	if root.Name() != RootElement {
		return nil, formatErrorf("root element is <%s>, expected <%s>", root.Name(), RootElement)
	}

	info := root.Child("info")
	if info == nil {
		return nil, formatErrorf("missing mandatory <info> section")
	}
	pkg := info.Child("package")
	if pkg == nil {
		return nil, formatErrorf("missing mandatory <package> section")
	}
	author := info.Child("author")
	if author == nil {
		return nil, formatErrorf("missing mandatory <author> section")
	}
	reqs := pkg.Child("requirements")
	if reqs == nil {
		return nil, formatErrorf("missing mandatory <requirements> section")
	}

	m := &Manifest{}
	m.Info.Package = PackageInfo{
		Name:    pkg.ChildText("name"),
		Version: pkg.ChildText("version"),
		URL:     pkg.ChildText("url"),
		IconURL: pkg.ChildText("iconUrl"),
	}
	if lic := pkg.Child("license"); lic != nil {
		m.Info.Package.License = lic.Value()
		m.Info.Package.LicenseURL = lic.AttrDefault("url", "")
	}
	req, err := parseRequirements(reqs)
	if err != nil {
		return nil, err
	}
	m.Info.Package.Requirements = req

	m.Info.Author = AuthorInfo{
		Name:    author.ChildText("name"),
		Website: author.ChildText("website"),
	}
	m.Info.Readme = info.ChildText("readme")

	if files := root.Child("files"); files != nil {
		for _, f := range files.ChildrenNamed("file") {
			m.Files = append(m.Files, FileEntry{
				Guid:    f.ChildText("guid"),
				OrgPath: f.ChildText("orgPath"),
				OrgName: f.ChildText("orgName"),
			})
		}
	}

	m.Macros = sectionChildren(root, "Macros")
	m.Templates = sectionChildren(root, "Templates")
	m.Stylesheets = sectionChildren(root, "Stylesheets")
	m.DataTypes = sectionChildren(root, "DataTypes")
	m.Languages = sectionChildren(root, "Languages")
	m.DictionaryItems = sectionChildren(root, "DictionaryItems")
	m.DocumentTypes = sectionChildren(root, "DocumentTypes")

	if docs := root.Child("Documents"); docs != nil {
		for _, set := range docs.ChildrenNamed("DocumentSet") {
			ds := DocumentSet{ImportMode: set.AttrDefault("importMode", "root")}
			for i := range set.Children {
				ds.Roots = append(ds.Roots, set.Children[i].Clone())
			}
			if len(ds.Roots) > 0 {
				m.Documents = append(m.Documents, ds)
			}
		}
	}

	if actions := root.ChildFold("Actions"); actions != nil {
		m.Actions = actions.Clone()
	}
	return m, nil
}

func parseRequirements(el *xmldoc.Element) (Requirements, error) {
	var r Requirements
	var err error
	for _, part := range []struct {
		name string
		dst  *int
	}{
		{"major", &r.Major},
		{"minor", &r.Minor},
		{"patch", &r.Patch},
	} {
		text := el.ChildText(part.name)
		if text == "" {
			return r, formatErrorf("requirements missing <%s>", part.name)
		}
		if *part.dst, err = strconv.Atoi(text); err != nil {
			return r, formatErrorf("requirements <%s> is not a number: %q", part.name, text)
		}
	}
	if t, ok := el.Attr("type"); ok {
		r.Strict = strings.EqualFold(t, "Strict")
	}
	return r, nil
}

func sectionChildren(root *xmldoc.Element, name string) []*xmldoc.Element {
	section := root.Child(name)
	if section == nil {
		return nil
	}
	out := make([]*xmldoc.Element, 0, len(section.Children))
	for i := range section.Children {
		out = append(out, section.Children[i].Clone())
	}
	return out
}

// Encode renders the manifest back into its XML document form.
func Encode(m *Manifest) ([]byte, error) {
	return toElement(m).Marshal()
}

// EncodeTo writes the encoded manifest to w.
func EncodeTo(w io.Writer, m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func toElement(m *Manifest) *xmldoc.Element {
	root := xmldoc.New(RootElement)

	info := root.Add(xmldoc.New("info"))
	pkg := info.Add(xmldoc.New("package"))
	pkg.AddText("name", m.Info.Package.Name)
	pkg.AddText("version", m.Info.Package.Version)
	lic := xmldoc.NewText("license", m.Info.Package.License)
	lic.SetAttr("url", m.Info.Package.LicenseURL)
	pkg.Add(lic)
	pkg.AddText("url", m.Info.Package.URL)
	pkg.AddText("iconUrl", m.Info.Package.IconURL)
	req := xmldoc.New("requirements")
	if m.Info.Package.Requirements.Strict {
		req.SetAttr("type", "Strict")
	}
	req.AddText("major", strconv.Itoa(m.Info.Package.Requirements.Major))
	req.AddText("minor", strconv.Itoa(m.Info.Package.Requirements.Minor))
	req.AddText("patch", strconv.Itoa(m.Info.Package.Requirements.Patch))
	pkg.Add(req)

	author := info.Add(xmldoc.New("author"))
	author.AddText("name", m.Info.Author.Name)
	author.AddText("website", m.Info.Author.Website)
	info.AddText("readme", m.Info.Readme)

	files := root.Add(xmldoc.New("files"))
	for _, f := range m.Files {
		fe := files.Add(xmldoc.New("file"))
		fe.AddText("guid", f.Guid)
		fe.AddText("orgPath", f.OrgPath)
		fe.AddText("orgName", f.OrgName)
	}

	addSection(root, "Macros", m.Macros)
	addSection(root, "Templates", m.Templates)
	addSection(root, "Stylesheets", m.Stylesheets)
	addSection(root, "DataTypes", m.DataTypes)
	addSection(root, "Languages", m.Languages)
	addSection(root, "DictionaryItems", m.DictionaryItems)
	addSection(root, "DocumentTypes", m.DocumentTypes)

	docs := root.Add(xmldoc.New("Documents"))
	for _, ds := range m.Documents {
		set := docs.Add(xmldoc.New("DocumentSet"))
		set.SetAttr("importMode", ds.ImportMode)
		for _, r := range ds.Roots {
			set.Add(r.Clone())
		}
	}

	if m.Actions != nil {
		root.Add(m.Actions.Clone())
	}
	return root
}

func addSection(root *xmldoc.Element, name string, items []*xmldoc.Element) {
	section := root.Add(xmldoc.New(name))
	for _, item := range items {
		section.Add(item.Clone())
	}
}
