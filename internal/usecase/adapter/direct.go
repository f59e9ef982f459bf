package adapter

import (
	"context"
	"fmt"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
)

var _ output.AdapterPort = (*DirectSubmit)(nil)

// DirectSubmit opens a fixed removal form, fills it and waits for the
// confirmation marker.
type DirectSubmit struct {
	recipe recipe.Recipe
}

func NewDirectSubmit(r recipe.Recipe) *DirectSubmit {
	return &DirectSubmit{recipe: r}
}

func (a *DirectSubmit) Name() string        { return a.recipe.Ref }
func (a *DirectSubmit) Shape() recipe.Shape { return recipe.ShapeDirectSubmit }

func (a *DirectSubmit) RequiredFields() []entity.ProfileField {
	return a.recipe.RequiredFields()
}

func (a *DirectSubmit) Run(ctx context.Context, session output.SessionPort, user *entity.UserProfile, broker *entity.Broker) (*output.Signal, error) {
	if err := session.Navigate(ctx, a.recipe.URL); err != nil {
		return nil, err
	}

	filled, err := applyFields(ctx, session, user, a.recipe.Fields)
	if err != nil {
		return nil, err
	}

	if err := session.Submit(ctx, a.recipe.Submit); err != nil {
		return nil, fmt.Errorf("submit %s: %w", a.recipe.Submit, err)
	}

	verdict, detail, err := confirm(ctx, session, a.recipe.Confirm)
	if err != nil {
		return nil, fmt.Errorf("confirmation: %w", err)
	}

	detail["fields_filled"] = filled
	if a.recipe.EstimatedCompletion != "" {
		detail["estimated_completion"] = a.recipe.EstimatedCompletion
	}
	if verdict == entity.ConfirmationConfirmed {
		detail["verification_required"] = true
	}

	return &output.Signal{Confirmation: verdict, Detail: detail}, nil
}
