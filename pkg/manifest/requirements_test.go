package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementsSatisfies(t *testing.T) {
	r := Requirements{Major: 1, Minor: 4, Patch: 2}

	ok, err := r.Satisfies("1.4.2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Satisfies("2.0.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Satisfies("1.3.9")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.Satisfies("not-a-version")
	assert.Error(t, err)
}

func TestCheckRequirementsStrictness(t *testing.T) {
	m := &Manifest{}
	m.Info.Package.Name = "demo"
	m.Info.Package.Requirements = Requirements{Major: 2}

	// Loose requirement: unmet is reported, not fatal.
	ok, err := m.CheckRequirements("1.0.0")
	require.NoError(t, err)
	assert.False(t, ok)

	m.Info.Package.Requirements.Strict = true
	_, err = m.CheckRequirements("1.0.0")
	require.Error(t, err)

	ok, err = m.CheckRequirements("2.0.0")
	require.NoError(t, err)
	assert.True(t, ok)
}
