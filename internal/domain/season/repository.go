package season

import "context"

// Repository describes season persistence needs from use cases.
type Repository interface {
	GetByYearAndType(ctx context.Context, yearStart int, seasonType Type) (*Season, error)
	Insert(ctx context.Context, s Season) error
}
