package service

import (
	"fmt"
	"strings"
)

// Option is a function that sets an option for the GetRecipeOptions, CreateRecipeOptions,
// UpdateRecipeOptions, or DeleteRecipeOptions
type Option[
	T GetRecipeOptions | CreateRecipeOptions | UpdateRecipeOptions | DeleteRecipeOptions,
] func(*T) error

// GetRecipeOptions is the options for the GetRecipe operation
type GetRecipeOptions struct {
	ID string
}

// CreateRecipeOptions is the options for the CreateRecipe operation
type CreateRecipeOptions struct {
	Name string
	// Ingredients is nil when the caller never supplied a list
	Ingredients []string
}

// UpdateRecipeOptions is the options for the UpdateRecipe operation
type UpdateRecipeOptions struct {
	ID          string
	Name        string
	Ingredients []string
}

// DeleteRecipeOptions is the options for the DeleteRecipe operation
type DeleteRecipeOptions struct {
	ID string
}

// WithID sets the recipe id for the GetRecipe, UpdateRecipe, or DeleteRecipe operation
func WithID[T GetRecipeOptions | UpdateRecipeOptions | DeleteRecipeOptions](id string) Option[T] {
	return func(o *T) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: recipe id is required", ErrInvalidInput)
		}

		switch o := any(o).(type) {
		case *GetRecipeOptions:
			o.ID = id
		case *UpdateRecipeOptions:
			o.ID = id
		case *DeleteRecipeOptions:
			o.ID = id
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}

		return nil
	}
}

// WithName sets the recipe name for the CreateRecipe or UpdateRecipe operation
func WithName[T CreateRecipeOptions | UpdateRecipeOptions](name string) Option[T] {
	return func(o *T) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: name must be a non-empty string", ErrInvalidInput)
		}

		switch o := any(o).(type) {
		case *CreateRecipeOptions:
			o.Name = name
		case *UpdateRecipeOptions:
			o.Name = name
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}

		return nil
	}
}

// WithIngredients sets the ingredient list for the CreateRecipe or UpdateRecipe operation.
// A nil slice is rejected; an empty slice is a valid, empty ingredient list.
func WithIngredients[T CreateRecipeOptions | UpdateRecipeOptions](ingredients []string) Option[T] {
	return func(o *T) error {
		if ingredients == nil {
			return fmt.Errorf("%w: ingredients must be a list of strings", ErrInvalidInput)
		}

		cp := append(make([]string, 0, len(ingredients)), ingredients...)
		switch o := any(o).(type) {
		case *CreateRecipeOptions:
			o.Ingredients = cp
		case *UpdateRecipeOptions:
			o.Ingredients = cp
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}

		return nil
	}
}

// ApplyOptions applies every option to a zero value of T and returns the result
func ApplyOptions[
	T GetRecipeOptions | CreateRecipeOptions | UpdateRecipeOptions | DeleteRecipeOptions,
](opts ...Option[T]) (*T, error) {
	options := new(T)
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}
