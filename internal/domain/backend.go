package domain

import "context"

// Backend is the per-entity CRUD contract shared by the local store and the
// remote API. Both backends implement it; the catalog picks one per call.
//
// Delete returns the removed id so callers can reconcile list state without
// a follow-up fetch.
type Backend[T Record[T]] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int) (T, error)
	Create(ctx context.Context, data T) (T, error)
	Update(ctx context.Context, id int, data T) (T, error)
	Delete(ctx context.Context, id int) (int, error)
}
