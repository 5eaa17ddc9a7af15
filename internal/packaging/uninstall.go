package packaging

import (
	"fmt"

	"github.com/bnema/sitepack/internal/entity"
	"github.com/bnema/sitepack/pkg/logger"
)

// Uninstall removes the entities a package definition recorded, inside
// one scope, in the reverse of install order so nothing is deleted
// while something later in the walk still references it. Ids whose
// entity is already gone are skipped. The definition's id lists are
// pruned so a partial re-run does not retry deleted entities.
func (in *Installer) Uninstall(def *PackageDefinition) (*UninstallationSummary, error) {
	scope, err := in.scopes.CreateScope()
	if err != nil {
		return nil, fmt.Errorf("create scope: %w", err)
	}
	defer scope.Close()

	st := scope.Stores()
	summary := &UninstallationSummary{PackageName: def.Name}

	if def.ContentNodeID != "" {
		if err := deleteContentTree(st, def, summary); err != nil {
			return nil, err
		}
	}

	summary.DocumentTypes, err = deleteEach(def.DocumentTypes, func(id int) (string, error) {
		dt, err := st.DocumentTypes.GetByID(id)
		if err != nil || dt == nil {
			return "", err
		}
		return dt.Name, st.DocumentTypes.Delete(id)
	})
	if err != nil {
		return nil, err
	}
	def.DocumentTypes = nil
	def.MediaTypes = nil

	summary.Templates, err = deleteEach(def.Templates, func(id int) (string, error) {
		t, err := st.Templates.GetByID(id)
		if err != nil || t == nil {
			return "", err
		}
		return t.Name, st.Templates.Delete(id)
	})
	if err != nil {
		return nil, err
	}
	def.Templates = nil

	summary.Stylesheets, err = deleteEach(def.Stylesheets, func(id int) (string, error) {
		s, err := st.Stylesheets.GetByID(id)
		if err != nil || s == nil {
			return "", err
		}
		return s.Name, st.Stylesheets.Delete(id)
	})
	if err != nil {
		return nil, err
	}
	def.Stylesheets = nil

	summary.Macros, err = deleteEach(def.Macros, func(id int) (string, error) {
		m, err := st.Macros.GetByID(id)
		if err != nil || m == nil {
			return "", err
		}
		return m.Name, st.Macros.Delete(id)
	})
	if err != nil {
		return nil, err
	}
	def.Macros = nil

	summary.DictionaryItems, err = deleteEach(def.DictionaryItems, func(id int) (string, error) {
		d, err := st.Dictionary.GetByID(id)
		if err != nil || d == nil {
			return "", err
		}
		return d.ItemKey, st.Dictionary.Delete(id)
	})
	if err != nil {
		return nil, err
	}
	def.DictionaryItems = nil

	summary.Languages, err = deleteEach(def.Languages, func(id int) (string, error) {
		l, err := st.Languages.GetByID(id)
		if err != nil || l == nil {
			return "", err
		}
		return l.ISOCode, st.Languages.Delete(id)
	})
	if err != nil {
		return nil, err
	}
	def.Languages = nil

	summary.DataTypes, err = deleteEach(def.DataTypes, func(id int) (string, error) {
		d, err := st.DataTypes.GetByID(id)
		if err != nil || d == nil {
			return "", err
		}
		return d.Name, st.DataTypes.Delete(id)
	})
	if err != nil {
		return nil, err
	}
	def.DataTypes = nil

	if err := scope.Complete(); err != nil {
		return nil, fmt.Errorf("complete scope: %w", err)
	}
	logger.Info("Package data uninstalled",
		"package", def.Name,
		"entities", summary.EntityCount(),
	)
	return summary, nil
}

// deleteEach deletes by id and collects the names of what was actually
// removed. Missing entities are silently skipped.
func deleteEach(ids []int, del func(id int) (string, error)) ([]string, error) {
	var names []string
	for _, id := range ids {
		name, err := del(id)
		if err != nil {
			return nil, err
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func deleteContentTree(st Stores, def *PackageDefinition, summary *UninstallationSummary) error {
	root, err := st.Content.GetByKey(def.ContentNodeID)
	if err != nil {
		return fmt.Errorf("look up content %q: %w", def.ContentNodeID, err)
	}
	if root == nil {
		return nil
	}
	var walk func(c *entity.Content) error
	walk = func(c *entity.Content) error {
		children, err := st.Content.ChildrenOf(c.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		summary.Content = append(summary.Content, c.Name)
		return st.Content.Delete(c.ID)
	}
	if err := walk(root); err != nil {
		return fmt.Errorf("delete content tree %q: %w", def.ContentNodeID, err)
	}
	def.ContentNodeID = ""
	return nil
}
