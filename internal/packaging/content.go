package packaging

import (
	"fmt"
	"strings"

	"github.com/bnema/sitepack/internal/entity"
	"github.com/bnema/sitepack/pkg/logger"
	"github.com/bnema/sitepack/pkg/manifest"
	"github.com/bnema/sitepack/pkg/xmldoc"
)

// importDocuments imports every document set in the manifest. Content
// nodes carry an isDoc marker attribute; any other child element of a
// node is one of its property values.
func (in *Installer) importDocuments(st Stores, sets []manifest.DocumentSet, imported map[string]*entity.DocumentType, def *PackageDefinition) ([]string, error) {
	installed, err := installedLanguages(st)
	if err != nil {
		return nil, err
	}
	aliases := make(map[string]map[string]bool)
	var names []string
	for _, set := range sets {
		for _, el := range set.Roots {
			for _, root := range contentRoots(el) {
				if err := in.importContentNode(st, root, 0, imported, installed, aliases, &names); err != nil {
					return nil, err
				}
				if def.ContentNodeID == "" {
					if key, ok := root.Attr("key"); ok {
						def.ContentNodeID = key
						def.LoadChildNodes = true
					}
				}
			}
		}
	}
	return names, nil
}

// contentRoots returns the content nodes to import from a document
// set's root element: the element itself when it is a node, otherwise
// its node children.
func contentRoots(root *xmldoc.Element) []*xmldoc.Element {
	if root == nil {
		return nil
	}
	if entity.IsContentNode(root) {
		return []*xmldoc.Element{root}
	}
	var roots []*xmldoc.Element
	for i := range root.Children {
		if entity.IsContentNode(&root.Children[i]) {
			roots = append(roots, &root.Children[i])
		}
	}
	return roots
}

// importContentNode imports one node and recurses into its children.
// A node whose key already exists in the site is skipped together with
// its whole subtree.
func (in *Installer) importContentNode(st Stores, el *xmldoc.Element, parentID int, imported map[string]*entity.DocumentType, installed map[string]bool, aliases map[string]map[string]bool, names *[]string) error {
	c, err := entity.ParseContent(el)
	if err != nil {
		return err
	}

	if c.Key != "" {
		existing, err := st.Content.GetByKey(c.Key)
		if err != nil {
			return fmt.Errorf("look up content %q: %w", c.Key, err)
		}
		if existing != nil {
			logger.Info("Content already exists, skipping node and its descendants",
				"name", c.Name, "key", c.Key)
			return nil
		}
	}

	docType := imported[c.TypeAlias]
	if docType == nil {
		docType, err = st.DocumentTypes.GetByAlias(c.TypeAlias)
		if err != nil {
			return fmt.Errorf("look up document type %q: %w", c.TypeAlias, err)
		}
	}
	if docType == nil {
		return fmt.Errorf("content %q references unknown document type %q", c.Name, c.TypeAlias)
	}

	if alias := entity.TemplateAlias(el); alias != "" {
		tmpl, err := st.Templates.GetByAlias(alias)
		if err != nil {
			return fmt.Errorf("look up template %q: %w", alias, err)
		}
		if tmpl != nil && docType.IsAllowedTemplate(alias) {
			c.TemplateID = tmpl.ID
		} else {
			logger.Warn("Dropping template not allowed on content type",
				"content", c.Name, "template", alias, "type", c.TypeAlias)
		}
	}

	allowed, err := propertyAliases(st, docType, imported, aliases)
	if err != nil {
		return err
	}
	kept := c.Properties[:0]
	for _, p := range c.Properties {
		if allowed[p.Alias] {
			kept = append(kept, p)
			continue
		}
		logger.Warn("Dropping property the content type does not define",
			"content", c.Name, "property", p.Alias, "type", c.TypeAlias)
	}
	c.Properties = kept

	filterCultures(c, installed)

	c.ParentID = parentID
	if err := st.Content.Save(c); err != nil {
		return fmt.Errorf("save content %q: %w", c.Name, err)
	}
	*names = append(*names, c.Name)

	for i := range el.Children {
		child := &el.Children[i]
		if entity.IsContentNode(child) {
			if err := in.importContentNode(st, child, c.ID, imported, installed, aliases, names); err != nil {
				return err
			}
		}
	}
	return nil
}

// propertyAliases collects the property aliases a type accepts: its own
// plus the ones inherited through its master chain and compositions,
// resolved batch-first and then against the store. Results are cached
// per type alias for the duration of the import.
func propertyAliases(st Stores, dt *entity.DocumentType, imported map[string]*entity.DocumentType, cache map[string]map[string]bool) (map[string]bool, error) {
	if set, ok := cache[dt.Alias]; ok {
		return set, nil
	}
	set := make(map[string]bool)
	visited := make(map[string]bool)
	queue := []*entity.DocumentType{dt}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.Alias] {
			continue
		}
		visited[cur.Alias] = true
		for _, p := range cur.PropertyTypes {
			set[p.Alias] = true
		}
		refs := cur.CompositionAliases
		if cur.MasterAlias != "" {
			refs = append(append([]string(nil), refs...), cur.MasterAlias)
		}
		for _, ref := range refs {
			if visited[ref] {
				continue
			}
			next := imported[ref]
			if next == nil {
				var err error
				next, err = st.DocumentTypes.GetByAlias(ref)
				if err != nil {
					return nil, fmt.Errorf("look up document type %q: %w", ref, err)
				}
			}
			if next != nil {
				queue = append(queue, next)
			}
		}
	}
	cache[dt.Alias] = set
	return set, nil
}

// filterCultures drops culture names and property values whose culture
// the site does not have, and backfills a culture name for cultures
// that carry values but no explicit name. Invariant values always pass.
func filterCultures(c *entity.Content, installed map[string]bool) {
	for culture := range c.CultureNames {
		if !installed[strings.ToLower(culture)] {
			delete(c.CultureNames, culture)
		}
	}
	found := make(map[string]bool)
	kept := c.Properties[:0]
	for _, p := range c.Properties {
		values := p.Values[:0]
		for _, v := range p.Values {
			if v.Culture == "" || installed[strings.ToLower(v.Culture)] {
				values = append(values, v)
				if v.Culture != "" {
					found[v.Culture] = true
				}
			}
		}
		p.Values = values
		if len(p.Values) > 0 {
			kept = append(kept, p)
		}
	}
	c.Properties = kept
	for culture := range found {
		if c.CultureName(culture) == "" {
			c.SetCultureName(culture, c.Name)
		}
	}
}
