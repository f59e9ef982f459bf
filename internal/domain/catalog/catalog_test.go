package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipesAreValid(t *testing.T) {
	for _, r := range Recipes() {
		t.Run(r.Ref, func(t *testing.T) {
			require.NoError(t, r.Validate())
		})
	}
}

func TestEveryAutomatableBrokerHasRecipe(t *testing.T) {
	refs := make(map[string]bool)
	for _, r := range Recipes() {
		refs[r.Ref] = true
	}

	automated, manual := 0, 0
	for _, b := range Brokers() {
		if b.AutomationAvailable {
			automated++
			assert.True(t, refs[b.RecipeRef], "broker %s has no recipe", b.Name)
		} else {
			manual++
			assert.Empty(t, b.RecipeRef, "manual broker %s should not reference a recipe", b.Name)
		}
	}

	assert.Equal(t, 6, automated)
	assert.Equal(t, 2, manual)
}
