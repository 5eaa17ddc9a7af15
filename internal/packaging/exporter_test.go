package packaging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitepack/internal/packaging"
	"github.com/bnema/sitepack/pkg/archive"
	"github.com/bnema/sitepack/pkg/manifest"
)

func TestExportRequiresSavedDefinition(t *testing.T) {
	db := newDB(t)
	e := packaging.NewExporter(db.ReadStores(), packaging.NewRepository(t.TempDir()), t.TempDir(), t.TempDir(), t.TempDir())

	_, err := e.Export(&packaging.PackageDefinition{Name: "Unsaved"})
	require.Error(t, err)
	var argErr *packaging.ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestExportRoundTrip(t *testing.T) {
	db := newDB(t)
	in := packaging.NewInstaller(db, 1)
	_, def, err := in.InstallData(decodeManifest(t, fullSections))
	require.NoError(t, err)

	siteRoot := t.TempDir()
	for _, rel := range []string{"css/site.css", "media/site.css", "scripts/app.js"} {
		path := filepath.Join(siteRoot, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))
	}
	def.Files = []string{"css/site.css", "media/site.css", "scripts/app.js"}
	def.PlatformVersion = "1.4.0"

	repoDir := t.TempDir()
	repo := packaging.NewRepository(repoDir)
	require.NoError(t, repo.Save(def))

	packagesDir := t.TempDir()
	tempDir := t.TempDir()
	e := packaging.NewExporter(db.ReadStores(), repo, siteRoot, packagesDir, tempDir)

	path, err := e.Export(def)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(packagesDir, "Test_Kit_1.0.0.zip"), path)
	assert.Equal(t, path, def.PackagePath)

	// The archive path is persisted on the stored definition too.
	loaded, err := repo.GetByID(def.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, path, loaded.PackagePath)

	// Staging is cleaned up.
	leftovers, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	r, err := archive.Open(path)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.ReadFile(packaging.ManifestFileName)
	require.NoError(t, err)
	m, err := manifest.DecodeBytes(data)
	require.NoError(t, err)

	assert.Equal(t, "Test Kit", m.Info.Package.Name)
	assert.Equal(t, manifest.Requirements{Major: 1, Minor: 4}, m.Info.Package.Requirements)
	assert.Len(t, m.DataTypes, 1)
	assert.Len(t, m.Languages, 2)
	assert.Len(t, m.DictionaryItems, 2)
	assert.Len(t, m.Macros, 1)
	assert.Len(t, m.Templates, 2)
	assert.Len(t, m.Stylesheets, 1)
	assert.Len(t, m.DocumentTypes, 3)

	// Colliding base names get unique stored names; the original
	// directory and name ride along for the installer.
	require.Len(t, m.Files, 3)
	byName := map[string]manifest.FileEntry{}
	for _, f := range m.Files {
		assert.True(t, r.Contains(f.Guid), "staged file %q is in the archive", f.Guid)
		byName[f.OrgPath] = f
	}
	assert.Equal(t, "site.css", byName["css"].OrgName)
	assert.Equal(t, "site.css", byName["media"].OrgName)
	assert.NotEqual(t, byName["css"].Guid, byName["media"].Guid)

	// Content comes back as a nested document set.
	require.Len(t, m.Documents, 1)
	require.Len(t, m.Documents[0].Roots, 1)
	root := m.Documents[0].Roots[0]
	key, _ := root.Attr("key")
	assert.Equal(t, "c-root", key)
	assert.Equal(t, "home", root.AttrDefault("template", ""))
	nested := false
	for i := range root.Children {
		if k, ok := root.Children[i].Attr("key"); ok && k == "c-child" {
			nested = true
		}
	}
	assert.True(t, nested, "child node is nested under its parent")
}

func TestExportedArchiveReinstalls(t *testing.T) {
	source := newDB(t)
	in := packaging.NewInstaller(source, 1)
	_, def, err := in.InstallData(decodeManifest(t, fullSections))
	require.NoError(t, err)

	repo := packaging.NewRepository(t.TempDir())
	require.NoError(t, repo.Save(def))
	e := packaging.NewExporter(source.ReadStores(), repo, t.TempDir(), t.TempDir(), t.TempDir())
	path, err := e.Export(def)
	require.NoError(t, err)

	r, err := archive.Open(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := r.ReadFile(packaging.ManifestFileName)
	require.NoError(t, err)
	m, err := manifest.DecodeBytes(data)
	require.NoError(t, err)

	target := newDB(t)
	summary, _, err := packaging.NewInstaller(target, 1).InstallData(m)
	require.NoError(t, err)
	assert.Len(t, summary.DocumentTypes, 3)
	assert.Len(t, summary.Content, 2)

	article, err := target.ReadStores().DocumentTypes.GetByAlias("article")
	require.NoError(t, err)
	require.NotNil(t, article)
	assert.Equal(t, "basePage", article.MasterAlias)
}
