package app

import (
	"github.com/stacklok/recipe-server/internal/service"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// RecipeService provides recipe business logic
	RecipeService service.RecipeService
}
