// Package inmemory provides an in-memory implementation of the RecipeService interface
package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/recipe-server/internal/service"
	"github.com/stacklok/recipe-server/internal/telemetry"
)

// recipeSvc implements the RecipeService interface over an ordered slice
type recipeSvc struct {
	mu      sync.RWMutex // Protects recipes
	recipes []*service.Recipe

	idGen   service.IDGenerator
	tracer  trace.Tracer
	metrics *telemetry.RecipeMetrics
}

var _ service.RecipeService = (*recipeSvc)(nil)

// Option is a functional option for configuring the recipeSvc
type Option func(*recipeSvc) error

// WithIDGenerator sets how ids are assigned to created recipes
func WithIDGenerator(gen service.IDGenerator) Option {
	return func(s *recipeSvc) error {
		if gen == nil {
			return fmt.Errorf("id generator cannot be nil")
		}
		s.idGen = gen
		return nil
	}
}

// WithSeed replaces the default seed recipes. An empty, non-nil slice starts
// the store empty.
func WithSeed(seed []service.SeedRecipe) Option {
	return func(s *recipeSvc) error {
		if seed == nil {
			return nil
		}
		recipes := make([]*service.Recipe, 0, len(seed))
		for _, r := range seed {
			recipes = append(recipes, &service.Recipe{
				Name:        r.Name,
				Ingredients: r.Ingredients,
			})
		}
		s.recipes = recipes
		return nil
	}
}

// WithTracer sets the tracer used for store spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *recipeSvc) error {
		s.tracer = tracer
		return nil
	}
}

// WithMetrics sets the recipe store metrics
func WithMetrics(metrics *telemetry.RecipeMetrics) Option {
	return func(s *recipeSvc) error {
		s.metrics = metrics
		return nil
	}
}

// New creates an in-memory recipe service. Without WithSeed the store holds
// the default recipes. Seed ids are always the recipe name.
func New(opts ...Option) (service.RecipeService, error) {
	s := &recipeSvc{
		idGen: service.NameIDGenerator{},
	}
	for _, seed := range service.DefaultSeedRecipes() {
		s.recipes = append(s.recipes, &service.Recipe{Name: seed.Name, Ingredients: seed.Ingredients})
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(s.recipes))
	for i, r := range s.recipes {
		if err := service.ValidateCreateOptions(&service.CreateRecipeOptions{
			Name:        r.Name,
			Ingredients: r.Ingredients,
		}); err != nil {
			return nil, fmt.Errorf("seed recipe %d: %w", i, err)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("seed recipe %d: %w: %s", i, service.ErrRecipeAlreadyExists, r.Name)
		}
		seen[r.Name] = true

		s.recipes[i] = (&service.Recipe{ID: r.Name, Name: r.Name, Ingredients: r.Ingredients}).Clone()
	}

	s.metrics.RecordRecipesTotal(context.Background(), int64(len(s.recipes)))
	return s, nil
}

// CheckReadiness always succeeds; the store lives in process memory
func (*recipeSvc) CheckReadiness(_ context.Context) error {
	return nil
}

// ListRecipes returns copies of all recipes in insertion order
func (s *recipeSvc) ListRecipes(ctx context.Context) (_ []*service.Recipe, err error) {
	ctx, span := s.startSpan(ctx, "inmemory.ListRecipes")
	defer s.finish(ctx, span, "list", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*service.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		result = append(result, r.Clone())
	}
	span.SetAttributes(AttrResultCount.Int(len(result)))
	return result, nil
}

// GetRecipe returns a copy of the recipe with the given id
func (s *recipeSvc) GetRecipe(
	ctx context.Context,
	opts ...service.Option[service.GetRecipeOptions],
) (_ *service.Recipe, err error) {
	ctx, span := s.startSpan(ctx, "inmemory.GetRecipe")
	defer s.finish(ctx, span, "get", time.Now(), &err)

	options, err := service.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if options.ID == "" {
		return nil, fmt.Errorf("%w: recipe id is required", service.ErrInvalidInput)
	}
	span.SetAttributes(AttrRecipeID.String(options.ID))

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(options.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", service.ErrRecipeNotFound, options.ID)
	}
	return s.recipes[idx].Clone(), nil
}

// CreateRecipe appends a new recipe and returns it with its assigned id
func (s *recipeSvc) CreateRecipe(
	ctx context.Context,
	opts ...service.Option[service.CreateRecipeOptions],
) (_ *service.Recipe, err error) {
	ctx, span := s.startSpan(ctx, "inmemory.CreateRecipe")
	defer s.finish(ctx, span, "create", time.Now(), &err)

	options, err := service.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if err := service.ValidateCreateOptions(options); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recipe := &service.Recipe{
		ID:          s.idGen.NewID(options.Name),
		Name:        options.Name,
		Ingredients: options.Ingredients,
	}
	span.SetAttributes(AttrRecipeID.String(recipe.ID))

	if s.indexOf(recipe.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", service.ErrRecipeAlreadyExists, recipe.ID)
	}

	s.recipes = append(s.recipes, recipe.Clone())
	s.metrics.RecordRecipesTotal(ctx, int64(len(s.recipes)))

	slog.InfoContext(ctx, "Recipe created", "id", recipe.ID, "ingredients", len(recipe.Ingredients))
	return recipe.Clone(), nil
}

// UpdateRecipe replaces the name and ingredients of the recipe with the given id.
// The id never changes and the recipe keeps its position.
func (s *recipeSvc) UpdateRecipe(
	ctx context.Context,
	opts ...service.Option[service.UpdateRecipeOptions],
) (_ *service.Recipe, err error) {
	ctx, span := s.startSpan(ctx, "inmemory.UpdateRecipe")
	defer s.finish(ctx, span, "update", time.Now(), &err)

	options, err := service.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if err := service.ValidateUpdateOptions(options); err != nil {
		return nil, err
	}
	span.SetAttributes(AttrRecipeID.String(options.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(options.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", service.ErrRecipeNotFound, options.ID)
	}

	updated := &service.Recipe{
		ID:          options.ID,
		Name:        options.Name,
		Ingredients: options.Ingredients,
	}
	s.recipes[idx] = updated.Clone()

	slog.InfoContext(ctx, "Recipe updated", "id", updated.ID)
	return updated.Clone(), nil
}

// DeleteRecipe removes the recipe with the given id, keeping the order of the rest
func (s *recipeSvc) DeleteRecipe(
	ctx context.Context,
	opts ...service.Option[service.DeleteRecipeOptions],
) (err error) {
	ctx, span := s.startSpan(ctx, "inmemory.DeleteRecipe")
	defer s.finish(ctx, span, "delete", time.Now(), &err)

	options, err := service.ApplyOptions(opts...)
	if err != nil {
		return err
	}
	if options.ID == "" {
		return fmt.Errorf("%w: recipe id is required", service.ErrInvalidInput)
	}
	span.SetAttributes(AttrRecipeID.String(options.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(options.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", service.ErrRecipeNotFound, options.ID)
	}

	s.recipes = slices.Delete(s.recipes, idx, idx+1)
	s.metrics.RecordRecipesTotal(ctx, int64(len(s.recipes)))

	slog.InfoContext(ctx, "Recipe deleted", "id", options.ID)
	return nil
}

// indexOf must be called with s.mu held
func (s *recipeSvc) indexOf(id string) int {
	return slices.IndexFunc(s.recipes, func(r *service.Recipe) bool {
		return r.ID == id
	})
}
