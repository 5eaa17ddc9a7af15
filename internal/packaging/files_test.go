package packaging_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitepack/internal/packaging"
	"github.com/bnema/sitepack/pkg/archive"
)

func writePackageArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg.zip")
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return path
}

func TestInstallFiles(t *testing.T) {
	db := newDB(t)
	in := packaging.NewInstaller(db, 1)

	zipPath := writePackageArchive(t, map[string]string{
		"site-logo.png": "png bytes",
		"site.css":      "body{}",
	})
	r, err := archive.Open(zipPath)
	require.NoError(t, err)
	defer r.Close()

	m := decodeManifest(t, `
		<files>
			<file><guid>site-logo.png</guid><orgPath>media/images</orgPath><orgName>logo.png</orgName></file>
			<file><guid>site.css</guid><orgPath>css</orgPath><orgName>site.css</orgName></file>
		</files>`)

	siteRoot := t.TempDir()
	installed, err := in.InstallFiles(r, m, siteRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"media/images/logo.png", "css/site.css"}, installed)

	data, err := os.ReadFile(filepath.Join(siteRoot, "media", "images", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
}

func TestInstallFilesReportsMissingEntries(t *testing.T) {
	db := newDB(t)
	in := packaging.NewInstaller(db, 1)

	zipPath := writePackageArchive(t, map[string]string{"site.css": "body{}"})
	r, err := archive.Open(zipPath)
	require.NoError(t, err)
	defer r.Close()

	m := decodeManifest(t, `
		<files>
			<file><guid>site.css</guid><orgPath>css</orgPath><orgName>site.css</orgName></file>
			<file><guid>gone.js</guid><orgPath>scripts</orgPath><orgName>gone.js</orgName></file>
		</files>`)

	siteRoot := t.TempDir()
	_, err = in.InstallFiles(r, m, siteRoot)
	require.Error(t, err)
	var missingErr *archive.MissingFilesError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []string{"gone.js"}, missingErr.Names)

	// Everything that was present is still installed.
	_, statErr := os.Stat(filepath.Join(siteRoot, "css", "site.css"))
	assert.NoError(t, statErr)
}
