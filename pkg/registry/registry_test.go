package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry_ShippedFile(t *testing.T) {
	reg, err := LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)

	assert.NotEmpty(t, reg.Version)
	require.NotEmpty(t, reg.Activities)

	ids := map[string]bool{}
	for _, act := range reg.Activities {
		assert.NotEmpty(t, act.ID)
		assert.NotEmpty(t, act.TaskType)
		assert.NotEmpty(t, act.Category)
		assert.False(t, ids[act.ID], "duplicate activity id %s", act.ID)
		ids[act.ID] = true
	}

	assert.True(t, ids["generate-recommendations"])
	assert.True(t, ids["match-programs"])
	assert.True(t, ids["search-programs"])
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	reg, err := LoadRegistry("does-not-exist.json")
	assert.Error(t, err)
	assert.Nil(t, reg)
}
