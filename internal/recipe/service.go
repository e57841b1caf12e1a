// Package recipe serves recipe detail through a local cache and turns the
// service's HTML summary and instruction fields into renderable plain text.
package recipe

import (
	"context"
	"fmt"

	"macromate-client/internal/api"
	"macromate-client/pkg/logger"
)

// RecipeAPI is the slice of the service client this package needs.
type RecipeAPI interface {
	RecipeByID(ctx context.Context, id int64) (*api.Recipe, error)
}

// Service fetches recipe detail, serving from the cache when possible. The
// cache is optional; a nil cache means every Get goes to the service.
type Service struct {
	api   RecipeAPI
	cache *Cache
	log   *logger.Logger
}

func NewService(recipeAPI RecipeAPI, cache *Cache, log *logger.Logger) *Service {
	return &Service{api: recipeAPI, cache: cache, log: log}
}

func (s *Service) Get(ctx context.Context, id int64) (*api.Recipe, error) {
	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, id); ok {
			return r, nil
		}
	}

	r, err := s.api.RecipeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching recipe %d: %w", id, err)
	}

	if s.cache != nil {
		s.cache.Put(ctx, r)
	}
	return r, nil
}
