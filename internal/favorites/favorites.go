// Package favorites wraps the saved-recipe endpoints.
package favorites

import (
	"context"
	"fmt"

	"macromate-client/internal/api"
)

type FavoritesAPI interface {
	Favorites(ctx context.Context) ([]api.FavoriteRecipe, error)
	AddFavorite(ctx context.Context, recipeID int64) (*api.FavoriteRecipe, error)
	UpdateFavoriteNotes(ctx context.Context, favoriteID int64, notes string) (*api.FavoriteRecipe, error)
	RemoveFavorite(ctx context.Context, favoriteID int64) error
}

// Resource is a thin pass-through; having no favorites yet is an empty
// list, never an error.
type Resource struct {
	api FavoritesAPI
}

func NewResource(favoritesAPI FavoritesAPI) *Resource {
	return &Resource{api: favoritesAPI}
}

func (r *Resource) List(ctx context.Context) ([]api.FavoriteRecipe, error) {
	favs, err := r.api.Favorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching favorites: %w", err)
	}
	return favs, nil
}

func (r *Resource) Add(ctx context.Context, recipeID int64) (*api.FavoriteRecipe, error) {
	fav, err := r.api.AddFavorite(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("adding favorite: %w", err)
	}
	return fav, nil
}

func (r *Resource) UpdateNotes(ctx context.Context, favoriteID int64, notes string) (*api.FavoriteRecipe, error) {
	fav, err := r.api.UpdateFavoriteNotes(ctx, favoriteID, notes)
	if err != nil {
		return nil, fmt.Errorf("updating favorite notes: %w", err)
	}
	return fav, nil
}

func (r *Resource) Remove(ctx context.Context, favoriteID int64) error {
	if err := r.api.RemoveFavorite(ctx, favoriteID); err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}
	return nil
}
