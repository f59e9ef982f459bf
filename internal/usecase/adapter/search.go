package adapter

import (
	"context"
	"errors"
	"fmt"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
)

var _ output.AdapterPort = (*SearchThenRemove)(nil)

const msgNoRecord = "Could not locate profile automatically. Manual removal required."

// SearchThenRemove looks the user up first, opens the first listing and
// submits the removal form found there. The first match is taken as is.
type SearchThenRemove struct {
	recipe recipe.Recipe
}

func NewSearchThenRemove(r recipe.Recipe) *SearchThenRemove {
	return &SearchThenRemove{recipe: r}
}

func (a *SearchThenRemove) Name() string        { return a.recipe.Ref }
func (a *SearchThenRemove) Shape() recipe.Shape { return recipe.ShapeSearchThenRemove }

func (a *SearchThenRemove) RequiredFields() []entity.ProfileField {
	return a.recipe.RequiredFields()
}

func (a *SearchThenRemove) Run(ctx context.Context, session output.SessionPort, user *entity.UserProfile, broker *entity.Broker) (*output.Signal, error) {
	r := a.recipe

	if err := session.Navigate(ctx, r.URL); err != nil {
		return nil, err
	}
	if _, err := applyFields(ctx, session, user, r.Fields); err != nil {
		return nil, fmt.Errorf("search form: %w", err)
	}
	if err := session.Submit(ctx, r.Submit); err != nil {
		return nil, fmt.Errorf("search submit: %w", err)
	}

	if r.Results != "" {
		err := session.WaitVisible(ctx, r.Results)
		if errors.Is(err, output.ErrElementNotFound) {
			return notFound(msgNoRecord, "search_results_missing"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("search results: %w", err)
		}
	}

	matches, err := session.Count(ctx, r.Entry)
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	if matches == 0 {
		return notFound(msgNoRecord, "no_matches"), nil
	}

	if err := session.ClickNth(ctx, r.Entry, 0); err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}

	if r.RemovalLink != "" {
		err := session.Click(ctx, r.RemovalLink)
		if errors.Is(err, output.ErrElementNotFound) {
			return notFound(msgNoRecord, "removal_link_missing"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("removal link: %w", err)
		}
	}

	filled, err := applyFields(ctx, session, user, r.RemovalFields)
	if err != nil {
		return nil, fmt.Errorf("removal form: %w", err)
	}
	if err := session.Submit(ctx, r.RemovalSubmit); err != nil {
		return nil, fmt.Errorf("removal submit: %w", err)
	}

	verdict, detail, err := confirm(ctx, session, r.Confirm)
	if err != nil {
		return nil, fmt.Errorf("confirmation: %w", err)
	}

	detail["matches"] = matches
	detail["fields_filled"] = filled
	if r.EstimatedCompletion != "" {
		detail["estimated_completion"] = r.EstimatedCompletion
	}
	if verdict == entity.ConfirmationConfirmed {
		detail["verification_required"] = true
	}
	return &output.Signal{Confirmation: verdict, Detail: detail}, nil
}

func notFound(msg, reason string) *output.Signal {
	return &output.Signal{
		Confirmation: entity.ConfirmationNotFound,
		Message:      msg,
		Detail:       map[string]any{"reason": reason},
	}
}
