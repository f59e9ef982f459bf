package adapter

import (
	"context"
	"errors"
	"fmt"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
)

var _ output.AdapterPort = (*Generic)(nil)

const GenericName = "generic"

// Generic handles brokers without a dedicated recipe by probing the common
// field and submit selectors in priority order.
type Generic struct {
	candidates recipe.Candidates
}

func NewGeneric(candidates recipe.Candidates) *Generic {
	return &Generic{candidates: candidates}
}

func (a *Generic) Name() string                          { return GenericName }
func (a *Generic) Shape() recipe.Shape                   { return recipe.ShapeGenericForm }
func (a *Generic) RequiredFields() []entity.ProfileField { return nil }

func (a *Generic) Run(ctx context.Context, session output.SessionPort, user *entity.UserProfile, broker *entity.Broker) (*output.Signal, error) {
	if broker.RemovalURL == "" {
		return notFound("No removal URL available for automation", "no_removal_url"), nil
	}

	if err := session.Navigate(ctx, broker.RemovalURL); err != nil {
		return nil, err
	}

	filled := make(map[string]string)
	for _, fc := range a.candidates.Fields {
		value := user.Value(fc.Field)
		if value == "" {
			continue
		}
		selector, err := firstAccepting(ctx, session, fc.Selectors, func(sel string) error {
			return session.Fill(ctx, sel, value)
		})
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", fc.Field, err)
		}
		if selector != "" {
			filled[string(fc.Field)] = selector
		}
	}
	if len(filled) == 0 {
		return notFound("No recognizable removal form fields found. Manual removal required.", "no_form_fields"), nil
	}

	submitted, err := firstAccepting(ctx, session, a.candidates.Submit, func(sel string) error {
		return session.Submit(ctx, sel)
	})
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if submitted == "" {
		return notFound("No submit control found. Manual removal required.", "no_submit_control"), nil
	}

	verdict, detail, err := confirm(ctx, session, recipe.Marker{})
	if err != nil {
		return nil, fmt.Errorf("confirmation: %w", err)
	}
	detail["fields_filled"] = filled
	detail["submit"] = submitted
	return &output.Signal{Confirmation: verdict, Detail: detail}, nil
}

// firstAccepting tries each present selector until do succeeds. It returns
// "" when no candidate accepted; driver errors other than a missing element
// abort the probe.
func firstAccepting(ctx context.Context, session output.SessionPort, selectors []string, do func(string) error) (string, error) {
	for _, sel := range selectors {
		n, err := session.Count(ctx, sel)
		if err != nil {
			return "", err
		}
		if n == 0 {
			continue
		}
		err = do(sel)
		if err == nil {
			return sel, nil
		}
		if !errors.Is(err, output.ErrElementNotFound) {
			return "", err
		}
	}
	return "", nil
}
