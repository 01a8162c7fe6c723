package playerstat

import (
	"context"
	"time"
)

// Repository describes stat persistence needs from use cases.
type Repository interface {
	// BulkInsert appends stat lines, silently skipping duplicates on
	// either the primary key or the (player_id, game_id) constraint.
	BulkInsert(ctx context.Context, stats []Stat) (int, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]Stat, error)
}
