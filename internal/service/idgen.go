package service

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// IDStrategyName derives the recipe id from its name at creation time
	IDStrategyName = "name"
	// IDStrategyUUID assigns a random UUID to every new recipe
	IDStrategyUUID = "uuid"
)

// IDGenerator assigns ids to newly created recipes
type IDGenerator interface {
	NewID(name string) string
}

// NameIDGenerator uses the recipe name as its id
type NameIDGenerator struct{}

// NewID implements IDGenerator
func (NameIDGenerator) NewID(name string) string { return name }

// UUIDGenerator issues random version 4 UUIDs, independent of the name
type UUIDGenerator struct{}

// NewID implements IDGenerator
func (UUIDGenerator) NewID(_ string) string { return uuid.NewString() }

// NewIDGenerator returns the generator for the given strategy.
// An empty strategy selects IDStrategyName.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", IDStrategyName:
		return NameIDGenerator{}, nil
	case IDStrategyUUID:
		return UUIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy: %s", strategy)
	}
}
