package recipe

import (
	"errors"
	"fmt"

	"broker-removal/internal/domain/entity"
)

type Shape string

const (
	ShapeDirectSubmit     Shape = "direct_submit"
	ShapeSearchThenRemove Shape = "search_then_remove"
	ShapeGenericForm      Shape = "generic_form"
)

type Action string

const (
	ActionFill   Action = "fill"
	ActionSelect Action = "select"
	ActionCheck  Action = "check"
)

var ErrInvalidRecipe = errors.New("invalid recipe")

// FieldStep types one value into one form control. The value comes from the
// profile field, or from Literal when Field is empty.
type FieldStep struct {
	Selector string
	Field    entity.ProfileField
	Literal  string
	Prefix   string
	Action   Action
	Optional bool
}

func (f FieldStep) Value(user *entity.UserProfile) string {
	if f.Action == ActionCheck {
		return ""
	}
	v := f.Literal
	if f.Field != "" {
		v = user.Value(f.Field)
	}
	if v == "" {
		return ""
	}
	return f.Prefix + v
}

// Marker is the confirmation signal a site shows after a successful
// submission: an element selector, a text fragment, or both.
type Marker struct {
	Selector string
	Text     string
}

func (m Marker) Empty() bool {
	return m.Selector == "" && m.Text == ""
}

type Recipe struct {
	Ref   string
	Shape Shape
	URL   string

	Fields  []FieldStep
	Submit  string
	Confirm Marker

	// Search-then-remove only.
	Results       string
	Entry         string
	RemovalLink   string
	RemovalFields []FieldStep
	RemovalSubmit string

	EstimatedCompletion string
}

// RequiredFields lists the profile fields the recipe cannot run without.
func (r Recipe) RequiredFields() []entity.ProfileField {
	seen := make(map[entity.ProfileField]bool)
	var out []entity.ProfileField
	for _, steps := range [][]FieldStep{r.Fields, r.RemovalFields} {
		for _, s := range steps {
			if s.Field == "" || s.Optional || seen[s.Field] {
				continue
			}
			seen[s.Field] = true
			out = append(out, s.Field)
		}
	}
	return out
}

func (r Recipe) Validate() error {
	if r.Ref == "" {
		return fmt.Errorf("%w: empty ref", ErrInvalidRecipe)
	}
	if r.URL == "" {
		return fmt.Errorf("%w: %s: empty url", ErrInvalidRecipe, r.Ref)
	}
	switch r.Shape {
	case ShapeDirectSubmit:
		if len(r.Fields) == 0 || r.Submit == "" {
			return fmt.Errorf("%w: %s: direct submit needs fields and a submit control", ErrInvalidRecipe, r.Ref)
		}
	case ShapeSearchThenRemove:
		if len(r.Fields) == 0 || r.Submit == "" || r.Entry == "" || r.RemovalSubmit == "" {
			return fmt.Errorf("%w: %s: search-then-remove needs search fields, entry and removal submit", ErrInvalidRecipe, r.Ref)
		}
	default:
		return fmt.Errorf("%w: %s: unknown shape %q", ErrInvalidRecipe, r.Ref, r.Shape)
	}
	for _, s := range append(append([]FieldStep{}, r.Fields...), r.RemovalFields...) {
		if s.Selector == "" {
			return fmt.Errorf("%w: %s: field step without selector", ErrInvalidRecipe, r.Ref)
		}
	}
	return nil
}

// Candidates lists prioritized selectors per logical field for forms that
// have no dedicated recipe.
type Candidates struct {
	Fields []FieldCandidates
	Submit []string
}

type FieldCandidates struct {
	Field     entity.ProfileField
	Selectors []string
}

func DefaultCandidates() Candidates {
	return Candidates{
		Fields: []FieldCandidates{
			{Field: entity.FieldFirstName, Selectors: []string{`input[name="firstName"]`, `input[name="first_name"]`, `input[name="fname"]`}},
			{Field: entity.FieldLastName, Selectors: []string{`input[name="lastName"]`, `input[name="last_name"]`, `input[name="lname"]`}},
			{Field: entity.FieldEmail, Selectors: []string{`input[name="email"]`, `input[type="email"]`}},
			{Field: entity.FieldPhone, Selectors: []string{`input[name="phone"]`, `input[name="telephone"]`, `input[type="tel"]`}},
			{Field: entity.FieldAddress, Selectors: []string{`input[name="address"]`, `textarea[name="address"]`}},
		},
		Submit: []string{`button[type="submit"]`, `input[type="submit"]`, `button[value="submit"]`},
	}
}
