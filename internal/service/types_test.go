package service

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipe_Clone(t *testing.T) {
	t.Parallel()

	var nilRecipe *Recipe
	assert.Nil(t, nilRecipe.Clone())

	orig := &Recipe{ID: "toast", Name: "toast", Ingredients: []string{"bread"}}
	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Ingredients[0] = "butter"
	assert.Equal(t, "bread", orig.Ingredients[0])

	// ingredients always serialize as an array
	data, err := json.Marshal((&Recipe{ID: "x", Name: "x"}).Clone())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","name":"x","ingredients":[]}`, string(data))
}

func TestDefaultSeedRecipes(t *testing.T) {
	t.Parallel()

	seeds := DefaultSeedRecipes()
	require.Len(t, seeds, 3)
	assert.Equal(t, "boiled white rice", seeds[0].Name)
	assert.Equal(t, "hot cocoa", seeds[1].Name)
	assert.Equal(t, "milkshake", seeds[2].Name)

	// callers get their own copy
	seeds[0].Name = "changed"
	assert.Equal(t, "boiled white rice", DefaultSeedRecipes()[0].Name)
}

func TestNewIDGenerator(t *testing.T) {
	t.Parallel()

	for _, strategy := range []string{"", IDStrategyName} {
		gen, err := NewIDGenerator(strategy)
		require.NoError(t, err)
		assert.Equal(t, "hot cocoa", gen.NewID("hot cocoa"))
	}

	gen, err := NewIDGenerator(IDStrategyUUID)
	require.NoError(t, err)
	first, second := gen.NewID("hot cocoa"), gen.NewID("hot cocoa")
	assert.NotEqual(t, first, second)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	_, err = NewIDGenerator("sequential")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown id strategy")
}
