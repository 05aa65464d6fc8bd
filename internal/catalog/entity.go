package catalog

import (
	"context"
	"log/slog"

	"github.com/shelfdesk/shelfdesk/internal/api"
	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/shelfdesk/shelfdesk/internal/store"
)

// EntityStore dispatches one entity's operations to the local collection or
// the remote collection, whichever the mode flag selects. No automatic
// fallback happens: a remote failure propagates to the caller rather than
// silently switching backends, so the two independently-lived stores never
// drift apart within a session.
type EntityStore[T domain.Record[T]] struct {
	name     string
	local    *store.Collection[T]
	remote   *api.RemoteCollection[T]
	mode     *Mode
	validate func(T) error
	logger   *slog.Logger
}

func newEntityStore[T domain.Record[T]](
	name string,
	local *store.Collection[T],
	remote *api.RemoteCollection[T],
	mode *Mode,
	validate func(T) error,
	logger *slog.Logger,
) *EntityStore[T] {
	return &EntityStore[T]{
		name:     name,
		local:    local,
		remote:   remote,
		mode:     mode,
		validate: validate,
		logger:   logger,
	}
}

// backend resolves the active backend at call time.
func (e *EntityStore[T]) backend() domain.Backend[T] {
	if e.mode.UseLocal() || e.remote == nil {
		return e.local
	}
	return e.remote
}

func (e *EntityStore[T]) GetAll(ctx context.Context) ([]T, error) {
	return e.backend().GetAll(ctx)
}

func (e *EntityStore[T]) GetByID(ctx context.Context, id int) (T, error) {
	if id <= 0 {
		var zero T
		return zero, &domain.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return e.backend().GetByID(ctx, id)
}

func (e *EntityStore[T]) Create(ctx context.Context, data T) (T, error) {
	if err := e.validate(data); err != nil {
		var zero T
		return zero, err
	}
	created, err := e.backend().Create(ctx, data)
	if err != nil {
		e.logger.Error("create failed", "entity", e.name, "error", err)
		return created, err
	}
	e.logger.Info("created", "entity", e.name, "id", created.RecordID())
	return created, nil
}

func (e *EntityStore[T]) Update(ctx context.Context, id int, data T) (T, error) {
	var zero T
	if id <= 0 {
		return zero, &domain.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	if err := e.validate(data); err != nil {
		return zero, err
	}
	return e.backend().Update(ctx, id, data)
}

func (e *EntityStore[T]) Delete(ctx context.Context, id int) (int, error) {
	if id <= 0 {
		return 0, &domain.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	deleted, err := e.backend().Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	e.logger.Info("deleted", "entity", e.name, "id", deleted)
	return deleted, nil
}

// listBy serves the relation queries: a subresource fetch remotely, a
// filtered scan locally.
func (e *EntityStore[T]) listBy(ctx context.Context, relation string, id int, keep func(T) bool) ([]T, error) {
	if e.mode.UseLocal() || e.remote == nil {
		return e.local.Filter(ctx, keep)
	}
	return e.remote.ListBy(ctx, relation, id)
}
