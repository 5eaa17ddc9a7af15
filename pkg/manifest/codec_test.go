package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `<sitePackage>
  <info>
    <package>
      <name>Starter Kit</name>
      <version>2.1.0</version>
      <license url="https://opensource.org/licenses/MIT">MIT</license>
      <url>https://example.com/starter</url>
      <iconUrl>https://example.com/icon.png</iconUrl>
      <requirements type="Strict">
        <major>1</major>
        <minor>4</minor>
        <patch>0</patch>
      </requirements>
    </package>
    <author>
      <name>Jane Doe</name>
      <website>https://janedoe.example</website>
    </author>
    <readme>A starter kit.</readme>
  </info>
  <files>
    <file>
      <guid>site-logo.png</guid>
      <orgPath>media/images</orgPath>
      <orgName>logo.png</orgName>
    </file>
  </files>
  <Macros>
    <macro><name>Nav</name><alias>nav</alias></macro>
  </Macros>
  <Templates>
    <Template><Name>Home</Name><Alias>home</Alias></Template>
  </Templates>
  <DocumentTypes>
    <DocumentType><Info><Name>Page</Name><Alias>page</Alias></Info></DocumentType>
  </DocumentTypes>
  <Documents>
    <DocumentSet importMode="root">
      <page key="f1e0a2f4-0000-0000-0000-000000000001" nodeName="Home" isDoc=""/>
    </DocumentSet>
  </Documents>
  <actions>
    <Action alias="publishRoot" runat="install" undo="true"/>
  </actions>
</sitePackage>`

func TestDecodeFullManifest(t *testing.T) {
	m, err := Decode(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "Starter Kit", m.Info.Package.Name)
	assert.Equal(t, "2.1.0", m.Info.Package.Version)
	assert.Equal(t, "MIT", m.Info.Package.License)
	assert.Equal(t, "https://opensource.org/licenses/MIT", m.Info.Package.LicenseURL)
	assert.Equal(t, Requirements{Major: 1, Minor: 4, Patch: 0, Strict: true}, m.Info.Package.Requirements)
	assert.Equal(t, "Jane Doe", m.Info.Author.Name)
	assert.Equal(t, "A starter kit.", m.Info.Readme)

	require.Len(t, m.Files, 1)
	assert.Equal(t, FileEntry{Guid: "site-logo.png", OrgPath: "media/images", OrgName: "logo.png"}, m.Files[0])

	assert.Len(t, m.Macros, 1)
	assert.Len(t, m.Templates, 1)
	assert.Len(t, m.DocumentTypes, 1)
	require.Len(t, m.Documents, 1)
	assert.Equal(t, "root", m.Documents[0].ImportMode)
	require.Len(t, m.Documents[0].Roots, 1)
	assert.Equal(t, "page", m.Documents[0].Roots[0].Name())

	// The actions section name is matched ignoring case.
	require.NotNil(t, m.Actions)
}

func TestDecodeWrongRootElement(t *testing.T) {
	_, err := Decode(strings.NewReader(`<somethingElse><info/></somethingElse>`))
	require.Error(t, err)
	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestDecodeMissingMandatorySections(t *testing.T) {
	cases := map[string]string{
		"no info":         `<sitePackage/>`,
		"no package":      `<sitePackage><info><author><name>a</name></author></info></sitePackage>`,
		"no author":       `<sitePackage><info><package><name>p</name><requirements><major>1</major><minor>0</minor><patch>0</patch></requirements></package></info></sitePackage>`,
		"no requirements": `<sitePackage><info><package><name>p</name></package><author><name>a</name></author></info></sitePackage>`,
		"bad requirement": `<sitePackage><info><package><requirements><major>x</major><minor>0</minor><patch>0</patch></requirements></package><author/></info></sitePackage>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			var formatErr *FormatError
			assert.ErrorAs(t, err, &formatErr)
		})
	}
}

func TestDecodeMalformedXML(t *testing.T) {
	_, err := Decode(strings.NewReader(`<sitePackage><info>`))
	require.Error(t, err)
	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m, err := Decode(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	data, err := Encode(m)
	require.NoError(t, err)

	again, err := DecodeBytes(data)
	require.NoError(t, err)

	assert.Equal(t, m.Info, again.Info)
	assert.Equal(t, m.Files, again.Files)
	assert.Len(t, again.Macros, len(m.Macros))
	assert.Len(t, again.Templates, len(m.Templates))
	assert.Len(t, again.DocumentTypes, len(m.DocumentTypes))
	require.Len(t, again.Documents, 1)
	require.Len(t, again.Documents[0].Roots, 1)
	assert.Equal(t, "page", again.Documents[0].Roots[0].Name())
	require.NotNil(t, again.Actions)
}

func TestDocumentSetKeepsEveryRoot(t *testing.T) {
	doc := `<sitePackage>
	  <info>
	    <package>
	      <name>p</name>
	      <requirements><major>1</major><minor>0</minor><patch>0</patch></requirements>
	    </package>
	    <author><name>a</name></author>
	  </info>
	  <Documents>
	    <DocumentSet importMode="root">
	      <page key="k1" nodeName="One" isDoc=""/>
	      <page key="k2" nodeName="Two" isDoc=""/>
	    </DocumentSet>
	  </Documents>
	</sitePackage>`

	m, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, m.Documents, 1)
	require.Len(t, m.Documents[0].Roots, 2)

	data, err := Encode(m)
	require.NoError(t, err)
	again, err := DecodeBytes(data)
	require.NoError(t, err)
	require.Len(t, again.Documents, 1)
	require.Len(t, again.Documents[0].Roots, 2)
	assert.Equal(t, "k2", again.Documents[0].Roots[1].AttrDefault("key", ""))
}
