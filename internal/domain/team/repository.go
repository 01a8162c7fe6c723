package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByName(ctx context.Context, name string) (*Team, error)
	NameIndex(ctx context.Context) (map[string]string, error)
	Insert(ctx context.Context, t Team) error
}
