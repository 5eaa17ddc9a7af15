package manifest

import (
	"strings"

	"github.com/bnema/sitepack/pkg/xmldoc"
)

// RunAt values for package actions.
const (
	RunAtInstall   = "install"
	RunAtUninstall = "uninstall"
)

// Action is one declared package action. The full fragment is kept so
// action handlers can read their own parameters from it.
type Action struct {
	Alias    string
	RunAt    string
	Undo     bool
	Fragment *xmldoc.Element
}

// ParseActions interprets an actions fragment. The root's name must
// equal "Actions" ignoring case; each child must be an <Action> with an
// alias attribute, accepted under both its legacy lowercase and
// capitalized spellings. runat defaults to install and undo to true.
func ParseActions(el *xmldoc.Element) ([]Action, error) {
	if el == nil {
		return nil, nil
	}
	if !strings.EqualFold(el.Name(), "Actions") {
		return nil, formatErrorf("actions root element is <%s>, expected <Actions>", el.Name())
	}
	var actions []Action
	for i := range el.Children {
		child := &el.Children[i]
		if !strings.EqualFold(child.Name(), "Action") {
			return nil, formatErrorf("unexpected <%s> element in actions fragment", child.Name())
		}
		alias, ok := child.Attr("alias")
		if !ok {
			alias, ok = child.Attr("Alias")
		}
		if !ok || strings.TrimSpace(alias) == "" {
			return nil, formatErrorf("action %d has no alias attribute", i)
		}
		runAt := strings.ToLower(child.AttrDefault("runat", RunAtInstall))
		if runAt != RunAtInstall && runAt != RunAtUninstall {
			return nil, formatErrorf("action %q has invalid runat %q", alias, runAt)
		}
		undo := true
		if v, ok := child.Attr("undo"); ok && strings.EqualFold(v, "false") {
			undo = false
		}
		actions = append(actions, Action{
			Alias:    strings.TrimSpace(alias),
			RunAt:    runAt,
			Undo:     undo,
			Fragment: child.Clone(),
		})
	}
	return actions, nil
}

// UndoActions filters actions down to the ones that should run again at
// uninstall time: the undoable install actions plus the explicit
// uninstall actions.
func UndoActions(actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		if a.RunAt == RunAtUninstall || a.Undo {
			out = append(out, a)
		}
	}
	return out
}
