package packaging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitepack/internal/packaging"
)

func TestUninstallRemovesRecordedEntities(t *testing.T) {
	db := newDB(t)
	in := packaging.NewInstaller(db, 1)
	_, def, err := in.InstallData(decodeManifest(t, fullSections))
	require.NoError(t, err)

	summary, err := in.Uninstall(def)
	require.NoError(t, err)

	assert.Equal(t, []string{"Child", "Welcome"}, summary.Content, "children are deleted before their parent")
	assert.Len(t, summary.DocumentTypes, 3)
	assert.Len(t, summary.Templates, 2)
	assert.Len(t, summary.Stylesheets, 1)
	assert.Len(t, summary.Macros, 1)
	assert.Len(t, summary.DictionaryItems, 2)
	assert.Len(t, summary.Languages, 2)
	assert.Len(t, summary.DataTypes, 1)

	st := db.ReadStores()
	content, err := st.Content.GetByKey("c-root")
	require.NoError(t, err)
	assert.Nil(t, content)
	dt, err := st.DocumentTypes.GetByAlias("article")
	require.NoError(t, err)
	assert.Nil(t, dt)
	tmpl, err := st.Templates.GetByAlias("home")
	require.NoError(t, err)
	assert.Nil(t, tmpl)
	langs, err := st.Languages.GetAll()
	require.NoError(t, err)
	assert.Empty(t, langs)

	// The definition is pruned so a re-run has nothing left to do.
	assert.Empty(t, def.ContentNodeID)
	assert.Empty(t, def.DocumentTypes)
	assert.Empty(t, def.Templates)
	assert.Empty(t, def.Languages)
	assert.Empty(t, def.DataTypes)
}

func TestUninstallSkipsAlreadyDeletedEntities(t *testing.T) {
	db := newDB(t)
	in := packaging.NewInstaller(db, 1)
	_, def, err := in.InstallData(decodeManifest(t, `
		<Macros>
			<macro><name>One</name><alias>one</alias></macro>
			<macro><name>Two</name><alias>two</alias></macro>
		</Macros>`))
	require.NoError(t, err)
	require.Len(t, def.Macros, 2)

	scope, err := db.CreateScope()
	require.NoError(t, err)
	one, err := scope.Stores().Macros.GetByAlias("one")
	require.NoError(t, err)
	require.NoError(t, scope.Stores().Macros.Delete(one.ID))
	require.NoError(t, scope.Complete())

	summary, err := in.Uninstall(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"Two"}, summary.Macros)
}

func TestUninstallLeavesSharedEntitiesAlone(t *testing.T) {
	db := newDB(t)
	in := packaging.NewInstaller(db, 1)

	// The language is created by the first package; the second package
	// only reuses it and must not record or remove it.
	_, _, err := in.InstallData(decodeManifest(t, `
		<Languages><Language CultureAlias="en-US"/></Languages>`))
	require.NoError(t, err)

	_, def, err := in.InstallData(decodeManifest(t, `
		<Languages><Language CultureAlias="en-US"/></Languages>
		<Macros><macro><name>Nav</name><alias>nav</alias></macro></Macros>`))
	require.NoError(t, err)
	assert.Empty(t, def.Languages)

	_, err = in.Uninstall(def)
	require.NoError(t, err)

	lang, err := db.ReadStores().Languages.GetByISO("en-US")
	require.NoError(t, err)
	assert.NotNil(t, lang)
}
