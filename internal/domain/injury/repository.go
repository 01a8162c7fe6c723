package injury

import (
	"context"
	"time"
)

// Repository describes injury report persistence needs from use cases.
type Repository interface {
	BulkInsert(ctx context.Context, reports []Report) (int, error)
	ListByReportedRange(ctx context.Context, start, end time.Time) ([]Report, error)
}
