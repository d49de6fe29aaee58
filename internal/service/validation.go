package service

import (
	"fmt"
	"strings"
)

// ValidateCreateOptions checks that a create request carries a name and an ingredient list
func ValidateCreateOptions(opts *CreateRecipeOptions) error {
	if opts == nil {
		return fmt.Errorf("%w: recipe data is required", ErrInvalidInput)
	}
	return validateRecipeFields(opts.Name, opts.Ingredients)
}

// ValidateUpdateOptions checks that an update request carries an id, a name and an ingredient list
func ValidateUpdateOptions(opts *UpdateRecipeOptions) error {
	if opts == nil {
		return fmt.Errorf("%w: recipe data is required", ErrInvalidInput)
	}
	if strings.TrimSpace(opts.ID) == "" {
		return fmt.Errorf("%w: recipe id is required", ErrInvalidInput)
	}
	return validateRecipeFields(opts.Name, opts.Ingredients)
}

func validateRecipeFields(name string, ingredients []string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must be a non-empty string", ErrInvalidInput)
	}
	if ingredients == nil {
		return fmt.Errorf("%w: ingredients must be a list of strings", ErrInvalidInput)
	}
	return nil
}
