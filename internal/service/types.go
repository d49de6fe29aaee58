package service

// Recipe is a named, ordered list of ingredients
type Recipe struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
}

// Clone returns a deep copy of the recipe. The ingredient slice of the copy is
// never nil so it always serializes as a JSON array.
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	return &Recipe{
		ID:          r.ID,
		Name:        r.Name,
		Ingredients: append(make([]string, 0, len(r.Ingredients)), r.Ingredients...),
	}
}

// SeedRecipe describes a recipe loaded into the store at startup
type SeedRecipe struct {
	Name        string   `yaml:"name"`
	Ingredients []string `yaml:"ingredients"`
}

// DefaultSeedRecipes returns the recipes present in a freshly started store
func DefaultSeedRecipes() []SeedRecipe {
	return []SeedRecipe{
		{
			Name:        "boiled white rice",
			Ingredients: []string{"1 cup white rice", "2 cups water", "pinch of salt"},
		},
		{
			Name:        "hot cocoa",
			Ingredients: []string{"1 cup milk", "2 tbsp cocoa", "1 tbsp sugar"},
		},
		{
			Name:        "milkshake",
			Ingredients: []string{"2 tbsp cocoa", "2 cups vanilla ice cream", "1 cup milk"},
		},
	}
}
