package adapter

import (
	"fmt"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/recipe"
)

// FromRecipe builds the adapter matching the recipe's shape.
func FromRecipe(r recipe.Recipe) (output.AdapterPort, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	switch r.Shape {
	case recipe.ShapeDirectSubmit:
		return NewDirectSubmit(r), nil
	case recipe.ShapeSearchThenRemove:
		return NewSearchThenRemove(r), nil
	default:
		return nil, fmt.Errorf("%w: %s: unsupported shape %q", recipe.ErrInvalidRecipe, r.Ref, r.Shape)
	}
}

// RegisterRecipes adds one adapter per recipe to the registry.
func RegisterRecipes(registry output.AdapterRegistry, recipes []recipe.Recipe) error {
	for _, r := range recipes {
		a, err := FromRecipe(r)
		if err != nil {
			return err
		}
		registry.Register(a)
	}
	return nil
}
