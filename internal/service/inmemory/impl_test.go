package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/stacklok/recipe-server/internal/service"
)

func newTestService(t *testing.T, opts ...Option) service.RecipeService {
	t.Helper()
	svc, err := New(opts...)
	require.NoError(t, err)
	return svc
}

func ids(recipes []*service.Recipe) []string {
	out := make([]string, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.ID)
	}
	return out
}

func TestNew_DefaultSeed(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	recipes, err := svc.ListRecipes(context.Background())
	require.NoError(t, err)

	require.Len(t, recipes, 3)
	assert.Equal(t, []string{"boiled white rice", "hot cocoa", "milkshake"}, ids(recipes))
	for _, r := range recipes {
		assert.Equal(t, r.Name, r.ID)
		assert.Len(t, r.Ingredients, 3)
	}
	assert.Equal(t, []string{"2 tbsp cocoa", "2 cups vanilla ice cream", "1 cup milk"}, recipes[2].Ingredients)
}

func TestNew_Seed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		seed          []service.SeedRecipe
		expectedIDs   []string
		errorContains string
	}{
		{
			name:        "nil seed keeps defaults",
			seed:        nil,
			expectedIDs: []string{"boiled white rice", "hot cocoa", "milkshake"},
		},
		{
			name:        "empty seed starts empty",
			seed:        []service.SeedRecipe{},
			expectedIDs: []string{},
		},
		{
			name: "custom seed",
			seed: []service.SeedRecipe{
				{Name: "toast", Ingredients: []string{"bread"}},
				{Name: "water", Ingredients: []string{}},
			},
			expectedIDs: []string{"toast", "water"},
		},
		{
			name:          "blank name",
			seed:          []service.SeedRecipe{{Name: " ", Ingredients: []string{}}},
			errorContains: "seed recipe 0",
		},
		{
			name:          "missing ingredients",
			seed:          []service.SeedRecipe{{Name: "toast"}},
			errorContains: "ingredients must be a list",
		},
		{
			name: "duplicate names",
			seed: []service.SeedRecipe{
				{Name: "toast", Ingredients: []string{}},
				{Name: "toast", Ingredients: []string{"bread"}},
			},
			errorContains: "seed recipe 1: recipe already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, err := New(WithSeed(tt.seed))
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)

			recipes, err := svc.ListRecipes(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expectedIDs, ids(recipes))
		})
	}
}

func TestNew_NilIDGenerator(t *testing.T) {
	t.Parallel()

	_, err := New(WithIDGenerator(nil))
	require.Error(t, err)
}

func TestGetRecipe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	r, err := svc.GetRecipe(ctx, service.WithID[service.GetRecipeOptions]("hot cocoa"))
	require.NoError(t, err)
	assert.Equal(t, "hot cocoa", r.Name)

	_, err = svc.GetRecipe(ctx, service.WithID[service.GetRecipeOptions]("pizza"))
	require.ErrorIs(t, err, service.ErrRecipeNotFound)

	_, err = svc.GetRecipe(ctx)
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.GetRecipe(ctx, service.WithID[service.GetRecipeOptions](""))
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCreateRecipe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("appends with name as id", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		created, err := svc.CreateRecipe(ctx,
			service.WithName[service.CreateRecipeOptions]("chocolate"),
			service.WithIngredients[service.CreateRecipeOptions]([]string{"cocoa", "sugar"}),
		)
		require.NoError(t, err)
		assert.Equal(t, &service.Recipe{ID: "chocolate", Name: "chocolate", Ingredients: []string{"cocoa", "sugar"}}, created)

		recipes, err := svc.ListRecipes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"boiled white rice", "hot cocoa", "milkshake", "chocolate"}, ids(recipes))
	})

	t.Run("empty ingredients allowed", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		created, err := svc.CreateRecipe(ctx,
			service.WithName[service.CreateRecipeOptions]("air"),
			service.WithIngredients[service.CreateRecipeOptions]([]string{}),
		)
		require.NoError(t, err)
		assert.NotNil(t, created.Ingredients)
		assert.Empty(t, created.Ingredients)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		_, err := svc.CreateRecipe(ctx,
			service.WithName[service.CreateRecipeOptions]("milkshake"),
			service.WithIngredients[service.CreateRecipeOptions]([]string{"milk"}),
		)
		require.ErrorIs(t, err, service.ErrRecipeAlreadyExists)

		recipes, err := svc.ListRecipes(ctx)
		require.NoError(t, err)
		assert.Len(t, recipes, 3)
	})

	t.Run("uuid ids allow duplicate names", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, WithIDGenerator(service.UUIDGenerator{}))

		first, err := svc.CreateRecipe(ctx,
			service.WithName[service.CreateRecipeOptions]("milkshake"),
			service.WithIngredients[service.CreateRecipeOptions]([]string{"milk"}),
		)
		require.NoError(t, err)
		_, err = uuid.Parse(first.ID)
		require.NoError(t, err)
		assert.Equal(t, "milkshake", first.Name)

		second, err := svc.CreateRecipe(ctx,
			service.WithName[service.CreateRecipeOptions]("milkshake"),
			service.WithIngredients[service.CreateRecipeOptions]([]string{"milk"}),
		)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		// seeds keep their name as id
		_, err = svc.GetRecipe(ctx, service.WithID[service.GetRecipeOptions]("milkshake"))
		require.NoError(t, err)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		_, err := svc.CreateRecipe(ctx, service.WithName[service.CreateRecipeOptions]("toast"))
		require.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = svc.CreateRecipe(ctx, service.WithIngredients[service.CreateRecipeOptions]([]string{}))
		require.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = svc.CreateRecipe(ctx,
			service.WithName[service.CreateRecipeOptions](""),
			service.WithIngredients[service.CreateRecipeOptions]([]string{}),
		)
		require.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestUpdateRecipe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("replaces fields in place", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		updated, err := svc.UpdateRecipe(ctx,
			service.WithID[service.UpdateRecipeOptions]("hot cocoa"),
			service.WithName[service.UpdateRecipeOptions]("spiced cocoa"),
			service.WithIngredients[service.UpdateRecipeOptions]([]string{"milk", "cocoa", "cinnamon"}),
		)
		require.NoError(t, err)
		assert.Equal(t, "hot cocoa", updated.ID)
		assert.Equal(t, "spiced cocoa", updated.Name)

		recipes, err := svc.ListRecipes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"boiled white rice", "hot cocoa", "milkshake"}, ids(recipes))
		assert.Equal(t, "spiced cocoa", recipes[1].Name)
		assert.Equal(t, []string{"milk", "cocoa", "cinnamon"}, recipes[1].Ingredients)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		_, err := svc.UpdateRecipe(ctx,
			service.WithID[service.UpdateRecipeOptions]("pizza"),
			service.WithName[service.UpdateRecipeOptions]("pizza"),
			service.WithIngredients[service.UpdateRecipeOptions]([]string{}),
		)
		require.ErrorIs(t, err, service.ErrRecipeNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		_, err := svc.UpdateRecipe(ctx,
			service.WithID[service.UpdateRecipeOptions]("hot cocoa"),
			service.WithName[service.UpdateRecipeOptions]("cocoa"),
		)
		require.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = svc.UpdateRecipe(ctx,
			service.WithName[service.UpdateRecipeOptions]("cocoa"),
			service.WithIngredients[service.UpdateRecipeOptions]([]string{}),
		)
		require.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestDeleteRecipe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.DeleteRecipe(ctx, service.WithID[service.DeleteRecipeOptions]("hot cocoa")))

	recipes, err := svc.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"boiled white rice", "milkshake"}, ids(recipes))

	err = svc.DeleteRecipe(ctx, service.WithID[service.DeleteRecipeOptions]("hot cocoa"))
	require.ErrorIs(t, err, service.ErrRecipeNotFound)

	err = svc.DeleteRecipe(ctx)
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestReturnedRecipesAreCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	recipes, err := svc.ListRecipes(ctx)
	require.NoError(t, err)
	recipes[0].Name = "mutated"
	recipes[0].Ingredients[0] = "mutated"

	ingredients := []string{"cocoa"}
	_, err = svc.CreateRecipe(ctx,
		service.WithName[service.CreateRecipeOptions]("chocolate"),
		service.WithIngredients[service.CreateRecipeOptions](ingredients),
	)
	require.NoError(t, err)
	ingredients[0] = "mutated"

	got, err := svc.GetRecipe(ctx, service.WithID[service.GetRecipeOptions]("boiled white rice"))
	require.NoError(t, err)
	assert.Equal(t, "boiled white rice", got.Name)
	assert.Equal(t, "1 cup white rice", got.Ingredients[0])

	got, err = svc.GetRecipe(ctx, service.WithID[service.GetRecipeOptions]("chocolate"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cocoa"}, got.Ingredients)
}

func TestConcurrentCreates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, WithSeed([]service.SeedRecipe{}))

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateRecipe(ctx,
				service.WithName[service.CreateRecipeOptions](fmt.Sprintf("recipe-%d", i)),
				service.WithIngredients[service.CreateRecipeOptions]([]string{}),
			)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recipes, err := svc.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, recipes, n)
}

func TestStoreSpans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	svc := newTestService(t, WithTracer(tp.Tracer(ServiceTracerName)))

	_, err := svc.GetRecipe(ctx, service.WithID[service.GetRecipeOptions]("milkshake"))
	require.NoError(t, err)
	err = svc.DeleteRecipe(ctx, service.WithID[service.DeleteRecipeOptions]("pizza"))
	require.ErrorIs(t, err, service.ErrRecipeNotFound)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "inmemory.GetRecipe", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, AttrRecipeID.String("milkshake"))
	assert.NotEqual(t, codes.Error, spans[0].Status.Code)

	assert.Equal(t, "inmemory.DeleteRecipe", spans[1].Name)
	require.Len(t, spans[1].Events, 1)
	assert.Equal(t, "exception", spans[1].Events[0].Name)
	assert.NotEqual(t, codes.Error, spans[1].Status.Code)
}

func TestOutcomeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", outcomeOf(nil))
	assert.Equal(t, "not_found", outcomeOf(fmt.Errorf("%w: x", service.ErrRecipeNotFound)))
	assert.Equal(t, "invalid", outcomeOf(service.ErrInvalidInput))
	assert.Equal(t, "conflict", outcomeOf(service.ErrRecipeAlreadyExists))
	assert.Equal(t, "error", outcomeOf(fmt.Errorf("boom")))
}
