package circuits

import (
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert := require.New(t)

	v, err := semver.Parse(Version.String())
	assert.NoError(err)
	assert.True(v.GT(semver.Version{}), "version must be set")
	assert.Empty(v.Pre, "releases carry no prerelease tag")
	assert.Empty(v.Build)
}
