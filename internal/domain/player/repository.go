package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByName(ctx context.Context, name string) (*Player, error)
	// NameIndex returns every stored player name mapped to its canonical id.
	NameIndex(ctx context.Context) (map[string]string, error)
	Insert(ctx context.Context, p Player) error
}
