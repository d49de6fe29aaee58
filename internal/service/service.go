// Package service provides the business logic for the recipe API
package service

import (
	"context"
	"errors"
)

var (
	// ErrRecipeNotFound is returned when no recipe matches the requested id
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrRecipeAlreadyExists is returned when a create would produce an id that is already taken
	ErrRecipeAlreadyExists = errors.New("recipe already exists")
	// ErrInvalidInput is returned when a recipe name or ingredient list is missing or malformed
	ErrInvalidInput = errors.New("invalid input")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go RecipeService

// RecipeService defines the interface for recipe operations
type RecipeService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListRecipes returns every recipe in insertion order
	ListRecipes(ctx context.Context) ([]*Recipe, error)

	// GetRecipe returns a single recipe by id
	GetRecipe(ctx context.Context, opts ...Option[GetRecipeOptions]) (*Recipe, error)

	// CreateRecipe stores a new recipe at the end of the collection
	CreateRecipe(ctx context.Context, opts ...Option[CreateRecipeOptions]) (*Recipe, error)

	// UpdateRecipe replaces the name and ingredients of an existing recipe
	UpdateRecipe(ctx context.Context, opts ...Option[UpdateRecipeOptions]) (*Recipe, error)

	// DeleteRecipe removes a recipe from the collection
	DeleteRecipe(ctx context.Context, opts ...Option[DeleteRecipeOptions]) error
}
