package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases.
type Repository interface {
	// BulkInsert appends games, silently skipping rows already present.
	// It reports how many rows were actually written.
	BulkInsert(ctx context.Context, games []Game) (int, error)
	// RefIndex maps every stored external game ref to its canonical key.
	RefIndex(ctx context.Context) (map[string]Key, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]Game, error)
}
