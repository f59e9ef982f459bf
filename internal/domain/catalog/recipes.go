package catalog

import (
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
)

const submitButton = `button[type="submit"]`

// Recipes returns the dedicated interaction recipes, keyed by RecipeRef.
func Recipes() []recipe.Recipe {
	return []recipe.Recipe{
		{
			Ref:   "whitepages",
			Shape: recipe.ShapeDirectSubmit,
			URL:   "https://www.whitepages.com/suppression_requests",
			Fields: []recipe.FieldStep{
				fill(`input[name="firstName"]`, entity.FieldFirstName),
				fill(`input[name="lastName"]`, entity.FieldLastName),
				fill(`input[name="email"]`, entity.FieldEmail),
				optional(fill(`input[name="phone"]`, entity.FieldPhone)),
				fill(`input[name="address"]`, entity.FieldAddress),
			},
			Submit:              submitButton,
			Confirm:             recipe.Marker{Selector: ".success-message"},
			EstimatedCompletion: "24h",
		},
		{
			Ref:   "spokeo",
			Shape: recipe.ShapeSearchThenRemove,
			URL:   "https://www.spokeo.com/optout",
			Fields: []recipe.FieldStep{
				fill(`input[name="q"]`, entity.FieldFullName),
			},
			Submit:      submitButton,
			Results:     ".search-results",
			Entry:       ".profile-card",
			RemovalLink: `a[href*="optout"]`,
			RemovalFields: []recipe.FieldStep{
				fill(`input[name="email"]`, entity.FieldEmail),
			},
			RemovalSubmit:       submitButton,
			EstimatedCompletion: "3-5 days",
		},
		{
			Ref:   "beenverified",
			Shape: recipe.ShapeSearchThenRemove,
			URL:   "https://www.beenverified.com/app/optout/search",
			Fields: []recipe.FieldStep{
				fill(`input[name="firstName"]`, entity.FieldFirstName),
				fill(`input[name="lastName"]`, entity.FieldLastName),
				fill(`input[name="state"]`, entity.FieldState),
			},
			Submit:  submitButton,
			Results: ".search-results",
			Entry:   ".record-item",
			RemovalFields: []recipe.FieldStep{
				fill(`input[name="email"]`, entity.FieldEmail),
				{Selector: `input[name="reason"]`, Literal: "Privacy concerns", Action: recipe.ActionFill},
			},
			RemovalSubmit:       `button[value="remove"]`,
			EstimatedCompletion: "24h",
		},
		{
			Ref:   "intelius",
			Shape: recipe.ShapeDirectSubmit,
			URL:   "https://www.intelius.com/optout",
			Fields: []recipe.FieldStep{
				fill(`input[name="fname"]`, entity.FieldFirstName),
				fill(`input[name="lname"]`, entity.FieldLastName),
				fill(`input[name="email"]`, entity.FieldEmail),
				fill(`input[name="address"]`, entity.FieldAddress),
			},
			Submit:              submitButton,
			Confirm:             recipe.Marker{Selector: ".confirmation-message"},
			EstimatedCompletion: "24h",
		},
		{
			Ref:   "truepeoplesearch",
			Shape: recipe.ShapeDirectSubmit,
			URL:   "https://www.truepeoplesearch.com/removal",
			Fields: []recipe.FieldStep{
				fill(`input[name="first_name"]`, entity.FieldFirstName),
				fill(`input[name="last_name"]`, entity.FieldLastName),
				fill(`input[name="email"]`, entity.FieldEmail),
				{Selector: `textarea[name="additional_info"]`, Field: entity.FieldAddress, Prefix: "Address: ", Action: recipe.ActionFill},
			},
			Submit:              `input[type="submit"]`,
			Confirm:             recipe.Marker{Selector: ".success"},
			EstimatedCompletion: "24h",
		},
		{
			Ref:   "mylife",
			Shape: recipe.ShapeDirectSubmit,
			URL:   "https://www.mylife.com/ccpa",
			Fields: []recipe.FieldStep{
				fill(`input[name="first_name"]`, entity.FieldFirstName),
				fill(`input[name="last_name"]`, entity.FieldLastName),
				fill(`input[name="email"]`, entity.FieldEmail),
				{Selector: `select[name="state"]`, Field: entity.FieldState, Action: recipe.ActionSelect},
				{Selector: `input[value="delete"]`, Action: recipe.ActionCheck},
			},
			Submit:              submitButton,
			Confirm:             recipe.Marker{Selector: ".confirmation"},
			EstimatedCompletion: "3-5 days",
		},
	}
}

func fill(selector string, field entity.ProfileField) recipe.FieldStep {
	return recipe.FieldStep{Selector: selector, Field: field, Action: recipe.ActionFill}
}

func optional(s recipe.FieldStep) recipe.FieldStep {
	s.Optional = true
	return s
}
