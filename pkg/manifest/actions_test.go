package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitepack/pkg/xmldoc"
)

func mustParse(t *testing.T, doc string) *xmldoc.Element {
	t.Helper()
	el, err := xmldoc.ParseString(doc)
	require.NoError(t, err)
	return el
}

func TestParseActionsNil(t *testing.T) {
	actions, err := ParseActions(nil)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestParseActionsRootNameIgnoresCase(t *testing.T) {
	for _, doc := range []string{
		`<Actions><Action alias="a"/></Actions>`,
		`<actions><Action alias="a"/></actions>`,
		`<ACTIONS><Action alias="a"/></ACTIONS>`,
	} {
		actions, err := ParseActions(mustParse(t, doc))
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, "a", actions[0].Alias)
	}
}

func TestParseActionsWrongRoot(t *testing.T) {
	_, err := ParseActions(mustParse(t, `<Tasks><Action alias="a"/></Tasks>`))
	require.Error(t, err)
	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestParseActionsAliasSpellings(t *testing.T) {
	actions, err := ParseActions(mustParse(t,
		`<Actions><Action alias="lower"/><Action Alias="upper"/></Actions>`))
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "lower", actions[0].Alias)
	assert.Equal(t, "upper", actions[1].Alias)
}

func TestParseActionsMissingAlias(t *testing.T) {
	_, err := ParseActions(mustParse(t, `<Actions><Action runat="install"/></Actions>`))
	require.Error(t, err)
}

func TestParseActionsDefaultsAndFlags(t *testing.T) {
	actions, err := ParseActions(mustParse(t,
		`<Actions>
			<Action alias="a"/>
			<Action alias="b" runat="Uninstall" undo="false"/>
		</Actions>`))
	require.NoError(t, err)
	require.Len(t, actions, 2)

	assert.Equal(t, RunAtInstall, actions[0].RunAt)
	assert.True(t, actions[0].Undo)

	assert.Equal(t, RunAtUninstall, actions[1].RunAt)
	assert.False(t, actions[1].Undo)
}

func TestParseActionsBadRunAt(t *testing.T) {
	_, err := ParseActions(mustParse(t, `<Actions><Action alias="a" runat="sometime"/></Actions>`))
	require.Error(t, err)
}

func TestUndoActions(t *testing.T) {
	actions, err := ParseActions(mustParse(t,
		`<Actions>
			<Action alias="keep-undoable"/>
			<Action alias="keep-uninstall" runat="uninstall" undo="false"/>
			<Action alias="drop" undo="false"/>
		</Actions>`))
	require.NoError(t, err)

	undo := UndoActions(actions)
	require.Len(t, undo, 2)
	assert.Equal(t, "keep-undoable", undo[0].Alias)
	assert.Equal(t, "keep-uninstall", undo[1].Alias)
}
