package packaging

import (
	"fmt"

	"github.com/bnema/sitepack/internal/dag"
	"github.com/bnema/sitepack/internal/entity"
	"github.com/bnema/sitepack/pkg/logger"
	"github.com/bnema/sitepack/pkg/xmldoc"
)

// importDocumentTypes saves document and media types parents-first.
// Master and composition references order the sort when the referenced
// type is part of the batch; references to types outside the batch are
// resolved against the store and dropped with a warning when that fails
// too. A batch of exactly one skips the graph entirely and assumes its
// dependencies are already present, which keeps single-type syncs
// working.
func (in *Installer) importDocumentTypes(st Stores, els []*xmldoc.Element, def *PackageDefinition) ([]string, map[string]*entity.DocumentType, error) {
	type parsed struct {
		el *xmldoc.Element
		dt *entity.DocumentType
	}
	batch := make(map[string]*parsed, len(els))
	var order []string
	for _, el := range els {
		dt, err := entity.ParseDocumentType(el)
		if err != nil {
			return nil, nil, err
		}
		batch[dt.Alias] = &parsed{el: el, dt: dt}
		order = append(order, dt.Alias)
	}

	if len(order) > 1 {
		graph := dag.New()
		for _, alias := range order {
			graph.AddNode(alias)
		}
		for _, alias := range order {
			dt := batch[alias].dt
			if dt.MasterAlias != "" && graph.HasNode(dt.MasterAlias) {
				graph.AddDependency(alias, dt.MasterAlias)
			}
			for _, comp := range dt.CompositionAliases {
				if graph.HasNode(comp) {
					graph.AddDependency(alias, comp)
				}
			}
		}
		sorted, err := graph.Sort()
		if err != nil {
			return nil, nil, fmt.Errorf("order document types: %w", err)
		}
		order = sorted
	}

	imported := make(map[string]*entity.DocumentType, len(order))
	var names []string
	for _, alias := range order {
		p := batch[alias]
		dt := p.dt

		// A type nested under a master never sits in a folder.
		if folders, ok := p.el.Attr("Folders"); ok && folders != "" && dt.MasterAlias == "" {
			kind := FolderDocumentTypes
			parentID, err := ensureFolderPath(st, kind, folders)
			if err != nil {
				return nil, nil, err
			}
			dt.ParentID = parentID
		}

		if dt.MasterAlias != "" {
			master := imported[dt.MasterAlias]
			if master == nil {
				var err error
				master, err = st.DocumentTypes.GetByAlias(dt.MasterAlias)
				if err != nil {
					return nil, nil, fmt.Errorf("look up master type %q: %w", dt.MasterAlias, err)
				}
			}
			if master != nil {
				dt.ParentID = master.ID
			} else {
				logger.Warn("Master document type could not be resolved, importing at root",
					"type", alias, "master", dt.MasterAlias)
				dt.MasterAlias = ""
			}
		}

		dt.CompositionAliases = resolveAliases(dt.CompositionAliases, imported, st, "composition", alias)
		dt.AllowedTemplates = in.resolveTemplates(st, dt.AllowedTemplates, alias)
		if dt.DefaultTemplate != "" && !dt.IsAllowedTemplate(dt.DefaultTemplate) {
			logger.Warn("Default template is not among the allowed templates",
				"type", alias, "template", dt.DefaultTemplate)
			dt.DefaultTemplate = ""
		}

		existing, err := st.DocumentTypes.GetByAlias(alias)
		if err != nil {
			return nil, nil, fmt.Errorf("look up document type %q: %w", alias, err)
		}
		if existing != nil {
			dt.ID = existing.ID
			if dt.Key == "" {
				dt.Key = existing.Key
			}
		}
		if err := st.DocumentTypes.Save(dt); err != nil {
			return nil, nil, fmt.Errorf("save document type %q: %w", alias, err)
		}
		if existing == nil {
			if dt.MediaType {
				def.MediaTypes = append(def.MediaTypes, dt.ID)
			} else {
				def.DocumentTypes = append(def.DocumentTypes, dt.ID)
			}
		}
		imported[alias] = dt
		names = append(names, dt.Name)
	}

	// Allowed children reference types by alias and may point anywhere
	// in the batch, so the structure pass runs after every type exists.
	for _, alias := range order {
		dt := imported[alias]
		if len(dt.AllowedChildren) == 0 {
			continue
		}
		resolved := resolveAliases(dt.AllowedChildren, imported, st, "allowed child", alias)
		dt.AllowedChildren = resolved
		if err := st.DocumentTypes.Save(dt); err != nil {
			return nil, nil, fmt.Errorf("save structure of document type %q: %w", alias, err)
		}
	}
	return names, imported, nil
}

// resolveAliases keeps only aliases that resolve, batch-first and then
// against the store. Unresolved ones are dropped with a warning rather
// than failing the install.
func resolveAliases(aliases []string, imported map[string]*entity.DocumentType, st Stores, kind, owner string) []string {
	var kept []string
	for _, a := range aliases {
		if imported[a] != nil {
			kept = append(kept, a)
			continue
		}
		found, err := st.DocumentTypes.GetByAlias(a)
		if err == nil && found != nil {
			kept = append(kept, a)
			continue
		}
		logger.Warn("Dropping unresolved document type reference",
			"type", owner, "reference", kind, "alias", a)
	}
	return kept
}

func (in *Installer) resolveTemplates(st Stores, aliases []string, owner string) []string {
	var kept []string
	for _, a := range aliases {
		t, err := st.Templates.GetByAlias(a)
		if err == nil && t != nil {
			kept = append(kept, a)
			continue
		}
		logger.Warn("Dropping unresolved template reference",
			"type", owner, "template", a)
	}
	return kept
}
