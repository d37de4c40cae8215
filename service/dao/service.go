package dao

import (
	"context"
)

// Service is the persistence collaborator contract. The approval gate only
// strictly requires durable save and load of the per-run record, List exists
// for diagnostic surfaces.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
