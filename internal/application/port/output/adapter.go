package output

import (
	"context"

	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
)

// Signal is what an adapter reports once it has finished driving a site.
type Signal struct {
	Confirmation entity.Confirmation
	Message      string
	Detail       map[string]any
}

// AdapterPort drives one broker's removal flow through a browser session.
// Driver errors are returned as-is; the engine classifies them.
type AdapterPort interface {
	Name() string
	Shape() recipe.Shape
	RequiredFields() []entity.ProfileField
	Run(ctx context.Context, session SessionPort, user *entity.UserProfile, broker *entity.Broker) (*Signal, error)
}

type AdapterRegistry interface {
	Register(adapter AdapterPort)
	Resolve(ref string) AdapterPort
	Get(ref string) (AdapterPort, bool)
	All() []AdapterPort
}
