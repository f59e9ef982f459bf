package adapter

import (
	"context"
	"fmt"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
)

// applyFields runs the field steps in order and returns the selectors it
// touched. Optional steps with no value are skipped.
func applyFields(ctx context.Context, session output.SessionPort, user *entity.UserProfile, steps []recipe.FieldStep) ([]string, error) {
	var touched []string
	for _, step := range steps {
		value := step.Value(user)

		switch step.Action {
		case recipe.ActionCheck:
			if err := session.Check(ctx, step.Selector); err != nil {
				return touched, fmt.Errorf("check %s: %w", step.Selector, err)
			}
		case recipe.ActionSelect:
			if value == "" && step.Optional {
				continue
			}
			if err := session.SelectOption(ctx, step.Selector, value); err != nil {
				return touched, fmt.Errorf("select %s: %w", step.Selector, err)
			}
		default:
			if value == "" && step.Optional {
				continue
			}
			if err := session.Fill(ctx, step.Selector, value); err != nil {
				return touched, fmt.Errorf("fill %s: %w", step.Selector, err)
			}
		}
		touched = append(touched, step.Selector)
	}
	return touched, nil
}
