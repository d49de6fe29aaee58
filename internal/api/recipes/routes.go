// Package recipes provides the /recipes REST endpoints.
package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/recipe-server/internal/api/common"
	"github.com/stacklok/recipe-server/internal/service"
	"github.com/stacklok/recipe-server/internal/validators"
)

// MaxBodyBytes caps the size of POST and PUT bodies
const MaxBodyBytes = 1 << 20

// Routes handles HTTP requests for the recipe collection.
type Routes struct {
	service service.RecipeService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.RecipeService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates and configures the HTTP router for the recipe endpoints.
func Router(svc service.RecipeService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.NotFound(common.NotFoundHandler)
	r.MethodNotAllowed(common.MethodNotAllowedHandler)

	r.Get("/", routes.listRecipes)
	r.Get("/{id}", routes.getRecipe)
	r.Delete("/{id}", routes.deleteRecipe)

	r.Group(func(r chi.Router) {
		r.Use(requireJSON)
		r.Post("/", routes.createRecipe)
		r.Put("/{id}", routes.updateRecipe)
	})

	return r
}

// CreateRecipeRequest is the body of POST /recipes
type CreateRecipeRequest struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
}

// UpdateRecipeRequest is the body of PUT /recipes/{id}. ID is optional and,
// when present, must match the path.
type UpdateRecipeRequest struct {
	ID          *string  `json:"id,omitempty"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
}

// listRecipes handles GET /recipes
//
// @Summary		List recipes
// @Description	Get every recipe in insertion order
// @Tags		recipes
// @Produce		json
// @Success		200	{array}		service.Recipe
// @Failure		500	{object}	common.ErrorResponse
// @Router		/recipes [get]
func (routes *Routes) listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := routes.service.ListRecipes(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list recipes")
		return
	}
	if recipes == nil {
		recipes = []*service.Recipe{}
	}
	common.WriteJSONResponse(w, recipes, http.StatusOK)
}

// getRecipe handles GET /recipes/{id}
//
// @Summary		Get a recipe
// @Tags		recipes
// @Produce		json
// @Param		id	path		string	true	"Recipe id (URL-encoded)"
// @Success		200	{object}	service.Recipe
// @Failure		400	{object}	common.ErrorResponse
// @Failure		404	{object}	common.ErrorResponse
// @Router		/recipes/{id} [get]
func (routes *Routes) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	recipe, err := routes.service.GetRecipe(r.Context(), service.WithID[service.GetRecipeOptions](id))
	if err != nil {
		writeServiceError(w, r, err, "get recipe")
		return
	}
	common.WriteJSONResponse(w, recipe, http.StatusOK)
}

// createRecipe handles POST /recipes
//
// @Summary		Create a recipe
// @Description	Store a new recipe. With the default id strategy the id equals the name.
// @Tags		recipes
// @Accept		json
// @Produce		json
// @Param		recipe	body		CreateRecipeRequest	true	"Recipe to create"
// @Success		201		{object}	service.Recipe
// @Failure		400		{object}	common.ErrorResponse
// @Failure		409		{object}	common.ErrorResponse
// @Failure		413		{object}	common.ErrorResponse
// @Failure		415		{object}	common.ErrorResponse
// @Router		/recipes [post]
func (routes *Routes) createRecipe(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	if err := validators.ValidateCreateRecipe(body); err != nil {
		writeServiceError(w, r, err, "create recipe")
		return
	}

	var req CreateRecipeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := routes.service.CreateRecipe(r.Context(),
		service.WithName[service.CreateRecipeOptions](req.Name),
		service.WithIngredients[service.CreateRecipeOptions](req.Ingredients),
	)
	if err != nil {
		writeServiceError(w, r, err, "create recipe")
		return
	}

	w.Header().Set("Location", "/recipes/"+url.PathEscape(recipe.ID))
	common.WriteJSONResponse(w, recipe, http.StatusCreated)
}

// updateRecipe handles PUT /recipes/{id}
//
// @Summary		Update a recipe
// @Description	Replace the name and ingredients of a recipe. The id never changes.
// @Tags		recipes
// @Accept		json
// @Produce		json
// @Param		id		path		string				true	"Recipe id (URL-encoded)"
// @Param		recipe	body		UpdateRecipeRequest	true	"New recipe contents"
// @Success		200		{object}	service.Recipe
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Failure		415		{object}	common.ErrorResponse
// @Router		/recipes/{id} [put]
func (routes *Routes) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	if err := validators.ValidateUpdateRecipe(body); err != nil {
		writeServiceError(w, r, err, "update recipe")
		return
	}

	var req UpdateRecipeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID != nil && *req.ID != id {
		common.WriteErrorResponse(w,
			fmt.Sprintf("request path id (%s) and request body id (%s) must match", id, *req.ID),
			http.StatusBadRequest)
		return
	}

	recipe, err := routes.service.UpdateRecipe(r.Context(),
		service.WithID[service.UpdateRecipeOptions](id),
		service.WithName[service.UpdateRecipeOptions](req.Name),
		service.WithIngredients[service.UpdateRecipeOptions](req.Ingredients),
	)
	if err != nil {
		writeServiceError(w, r, err, "update recipe")
		return
	}
	common.WriteJSONResponse(w, recipe, http.StatusOK)
}

// deleteRecipe handles DELETE /recipes/{id}
//
// @Summary		Delete a recipe
// @Tags		recipes
// @Param		id	path	string	true	"Recipe id (URL-encoded)"
// @Success		204	"No Content"
// @Failure		400	{object}	common.ErrorResponse
// @Failure		404	{object}	common.ErrorResponse
// @Router		/recipes/{id} [delete]
func (routes *Routes) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := routes.service.DeleteRecipe(r.Context(), service.WithID[service.DeleteRecipeOptions](id)); err != nil {
		writeServiceError(w, r, err, "delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireJSON rejects bodies that are not application/json with 415.
// Requests without a body pass through and fail body validation instead.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ct := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
		if i := strings.Index(ct, ";"); i > -1 {
			ct = strings.TrimSpace(ct[:i])
		}
		if ct != "application/json" {
			common.WriteErrorResponse(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// readBody reads at most MaxBodyBytes. On failure the error reply is already written.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.WriteErrorResponse(w,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
				http.StatusRequestEntityTooLarge)
			return nil, false
		}
		common.WriteErrorResponse(w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// writeServiceError maps service errors onto HTTP status codes. Unexpected
// errors are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrRecipeNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrRecipeAlreadyExists):
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
	default:
		slog.ErrorContext(r.Context(), "Failed to "+action,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		common.WriteErrorResponse(w, "Failed to "+action, http.StatusInternalServerError)
	}
}
