package manifest

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// MinVersion returns the requirements as a semantic version.
func (r Requirements) MinVersion() *semver.Version {
	return semver.New(uint64(r.Major), uint64(r.Minor), uint64(r.Patch), "", "")
}

// Satisfies reports whether the given platform version meets the
// package's minimum version requirement.
func (r Requirements) Satisfies(platformVersion string) (bool, error) {
	v, err := semver.NewVersion(platformVersion)
	if err != nil {
		return false, fmt.Errorf("parse platform version %q: %w", platformVersion, err)
	}
	return !v.LessThan(r.MinVersion()), nil
}

// CheckRequirements validates the manifest's platform requirement.
// A strict requirement that is not met is an error; a loose one that is
// not met returns false with a nil error so callers can warn instead.
func (m *Manifest) CheckRequirements(platformVersion string) (bool, error) {
	r := m.Info.Package.Requirements
	ok, err := r.Satisfies(platformVersion)
	if err != nil {
		return false, err
	}
	if !ok && r.Strict {
		return false, fmt.Errorf("package %q requires platform %s or newer, have %s",
			m.Info.Package.Name, r.MinVersion(), platformVersion)
	}
	return ok, nil
}
