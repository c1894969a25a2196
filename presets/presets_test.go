package presets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoore/fs5600/presets"
)

func TestLookupKnownPreset(t *testing.T) {
	p, err := presets.Lookup("reference")
	require.NoError(t, err)
	assert.EqualValues(t, 400, p.TotalBlocks)
	assert.Equal(t, "reference", p.Slug)
}

func TestLookupUnknownPresetFails(t *testing.T) {
	_, err := presets.Lookup("does-not-exist")
	assert.Error(t, err)
}

func TestAllReturnsEveryRegisteredPreset(t *testing.T) {
	all := presets.All()
	assert.GreaterOrEqual(t, len(all), 3)

	slugs := map[string]bool{}
	for _, p := range all {
		slugs[p.Slug] = true
	}
	assert.True(t, slugs["tiny"])
	assert.True(t, slugs["reference"])
	assert.True(t, slugs["large"])
}
