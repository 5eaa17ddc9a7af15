package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitepack/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAssignsIDAndUpdatesInPlace(t *testing.T) {
	db := openTestDB(t)
	st := db.ReadStores()

	m := &entity.Macro{Name: "Nav", Alias: "nav"}
	require.NoError(t, st.Macros.Save(m))
	assert.NotZero(t, m.ID)

	m.Name = "Navigation"
	require.NoError(t, st.Macros.Save(m))

	loaded, err := st.Macros.GetByAlias("nav")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, m.ID, loaded.ID)
	assert.Equal(t, "Navigation", loaded.Name)

	byID, err := st.Macros.GetByID(m.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Navigation", byID.Name)
}

func TestLookupMissReturnsNil(t *testing.T) {
	db := openTestDB(t)
	st := db.ReadStores()

	m, err := st.Macros.GetByAlias("absent")
	require.NoError(t, err)
	assert.Nil(t, m)

	d, err := st.DataTypes.GetByKey("absent")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestKindsDoNotCollide(t *testing.T) {
	db := openTestDB(t)
	st := db.ReadStores()

	require.NoError(t, st.Macros.Save(&entity.Macro{Name: "Shared", Alias: "shared"}))
	require.NoError(t, st.Templates.Save(&entity.Template{Name: "Shared", Alias: "shared"}))

	mc, err := st.Macros.GetByAlias("shared")
	require.NoError(t, err)
	require.NotNil(t, mc)
	tp, err := st.Templates.GetByAlias("shared")
	require.NoError(t, err)
	require.NotNil(t, tp)

	require.NoError(t, st.Macros.Delete(mc.ID))
	tp, err = st.Templates.GetByAlias("shared")
	require.NoError(t, err)
	assert.NotNil(t, tp, "deleting a macro leaves the template alone")
}

func TestFolderStorePartitionsByKind(t *testing.T) {
	db := openTestDB(t)
	st := db.ReadStores()

	docFolder := &entity.Folder{Name: "Pages"}
	require.NoError(t, st.Folders.Save("documentTypes", docFolder))
	dataFolder := &entity.Folder{Name: "Pages"}
	require.NoError(t, st.Folders.Save("dataTypes", dataFolder))

	found, err := st.Folders.GetChild("documentTypes", 0, "Pages")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, docFolder.ID, found.ID)

	other, err := st.Folders.GetChild("dataTypes", 0, "Pages")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.NotEqual(t, docFolder.ID, other.ID)

	missing, err := st.Folders.GetChild("documentTypes", docFolder.ID, "Nested")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestContentChildrenOf(t *testing.T) {
	db := openTestDB(t)
	st := db.ReadStores()

	root := &entity.Content{Key: "root", Name: "Root", TypeAlias: "page"}
	require.NoError(t, st.Content.Save(root))
	first := &entity.Content{Key: "a", Name: "A", TypeAlias: "page", ParentID: root.ID}
	require.NoError(t, st.Content.Save(first))
	second := &entity.Content{Key: "b", Name: "B", TypeAlias: "page", ParentID: root.ID}
	require.NoError(t, st.Content.Save(second))

	children, err := st.Content.ChildrenOf(root.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "A", children[0].Name)
	assert.Equal(t, "B", children[1].Name)
}

func TestScopeCommitAndRollback(t *testing.T) {
	db := openTestDB(t)

	scope, err := db.CreateScope()
	require.NoError(t, err)
	require.NoError(t, scope.Stores().Macros.Save(&entity.Macro{Name: "Kept", Alias: "kept"}))
	require.NoError(t, scope.Complete())
	require.NoError(t, scope.Close())

	kept, err := db.ReadStores().Macros.GetByAlias("kept")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	scope, err = db.CreateScope()
	require.NoError(t, err)
	require.NoError(t, scope.Stores().Macros.Save(&entity.Macro{Name: "Lost", Alias: "lost"}))
	require.NoError(t, scope.Close())

	lost, err := db.ReadStores().Macros.GetByAlias("lost")
	require.NoError(t, err)
	assert.Nil(t, lost, "closing an uncompleted scope discards its writes")
}

func TestLanguageGetAllOrdered(t *testing.T) {
	db := openTestDB(t)
	st := db.ReadStores()

	require.NoError(t, st.Languages.Save(&entity.Language{ISOCode: "en-US", CultureName: "English"}))
	require.NoError(t, st.Languages.Save(&entity.Language{ISOCode: "da-DK", CultureName: "Danish"}))

	langs, err := st.Languages.GetAll()
	require.NoError(t, err)
	require.Len(t, langs, 2)
	assert.Equal(t, "en-US", langs[0].ISOCode)
	assert.Equal(t, "da-DK", langs[1].ISOCode)
}
