package packaging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitepack/internal/packaging"
)

func TestConflictCheckerFindsClashes(t *testing.T) {
	db := newDB(t)
	in := packaging.NewInstaller(db, 1)
	_, _, err := in.InstallData(decodeManifest(t, `
		<Macros><macro><name>Navigation</name><alias>nav</alias></macro></Macros>
		<Templates><Template><Name>Home</Name><Alias>home</Alias></Template></Templates>
		<Stylesheets><Stylesheet><Name>site</Name><FileName>css/site.css</FileName></Stylesheet></Stylesheets>`))
	require.NoError(t, err)

	siteRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(siteRoot, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(siteRoot, "scripts", "app.js"), []byte("x"), 0o644))

	m := decodeManifest(t, `
		<files>
			<file><guid>plugin.dll</guid><orgPath>Bin</orgPath><orgName>plugin.dll</orgName></file>
			<file><guid>helper.cs</guid><orgPath>App_Code/helpers</orgPath><orgName>helper.cs</orgName></file>
			<file><guid>app.js</guid><orgPath>scripts</orgPath><orgName>app.js</orgName></file>
			<file><guid>new.css</guid><orgPath>css</orgPath><orgName>new.css</orgName></file>
		</files>
		<Macros><macro><name>Navigation</name><alias>nav</alias></macro></Macros>
		<Templates><Template><Name>Home</Name><alias>home</alias></Template></Templates>
		<Stylesheets><Stylesheet><Name>site</Name></Stylesheet></Stylesheets>`)

	cc := packaging.NewConflictChecker(db.ReadStores(), siteRoot)
	conflicts, err := cc.Check(m)
	require.NoError(t, err)

	assert.False(t, conflicts.IsEmpty())
	assert.Equal(t, []string{"nav"}, conflicts.Macros)
	assert.Equal(t, []string{"home"}, conflicts.Templates, "lowercase alias spelling is accepted")
	assert.Equal(t, []string{"site"}, conflicts.Stylesheets)
	assert.Equal(t, []string{"Bin/plugin.dll", "App_Code/helpers/helper.cs"}, conflicts.UnsafeFiles)
	assert.Equal(t, []string{"scripts/app.js"}, conflicts.OverwrittenFiles)
}

func TestConflictCheckerCleanManifest(t *testing.T) {
	db := newDB(t)
	m := decodeManifest(t, `
		<files>
			<file><guid>new.css</guid><orgPath>css</orgPath><orgName>new.css</orgName></file>
		</files>
		<Macros><macro><name>Fresh</name><alias>fresh</alias></macro></Macros>`)

	cc := packaging.NewConflictChecker(db.ReadStores(), t.TempDir())
	conflicts, err := cc.Check(m)
	require.NoError(t, err)
	assert.True(t, conflicts.IsEmpty())
}
