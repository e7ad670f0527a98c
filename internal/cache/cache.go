package cache

import (
	"context"
	"time"

	"geraipos/client/internal/domain"
)

// SuggestionCache stores computed reorder suggestions so that repeated
// reads of an unchanged mirror version skip the fold.
type SuggestionCache interface {
	Get(ctx context.Context, key string) ([]domain.ReorderSuggestion, bool, error)
	Set(ctx context.Context, key string, value []domain.ReorderSuggestion, ttl time.Duration) error
}

type NoopSuggestionCache struct{}

func (NoopSuggestionCache) Get(_ context.Context, _ string) ([]domain.ReorderSuggestion, bool, error) {
	return nil, false, nil
}

func (NoopSuggestionCache) Set(_ context.Context, _ string, _ []domain.ReorderSuggestion, _ time.Duration) error {
	return nil
}
