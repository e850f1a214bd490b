package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	"studiobook/internal/domain"

	"github.com/rs/zerolog"
)

// LoadAll decodes a collection stored as a JSON array. An absent collection
// and an undecodable payload both yield an empty slice; the latter is logged.
// Errors from the store itself are returned.
func LoadAll[T any](ctx context.Context, store domain.RecordStore, collection string, logger *zerolog.Logger) ([]T, error) {
	payload, err := store.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	if len(payload) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		if logger != nil {
			logger.Warn().Err(err).Str("collection", collection).Msg("Stored collection is corrupt, treating it as empty")
		}
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// SaveAll overwrites a collection with items encoded as a JSON array.
func SaveAll[T any](ctx context.Context, store domain.RecordStore, collection string, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := store.Put(ctx, collection, payload); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	return nil
}
