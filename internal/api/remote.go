package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shelfdesk/shelfdesk/internal/domain"
)

// RemoteCollection adapts the client to the per-entity CRUD contract for one
// collection resource path, e.g. /books.
type RemoteCollection[T domain.Record[T]] struct {
	client *Client
	path   string
}

// NewRemoteCollection creates the remote backend for one entity kind.
func NewRemoteCollection[T domain.Record[T]](client *Client, path string) *RemoteCollection[T] {
	return &RemoteCollection[T]{client: client, path: path}
}

func (r *RemoteCollection[T]) GetAll(ctx context.Context) ([]T, error) {
	body, err := r.client.Get(ctx, r.path, nil)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return items, nil
}

func (r *RemoteCollection[T]) GetByID(ctx context.Context, id int) (T, error) {
	var item T
	body, err := r.client.Get(ctx, r.path+"/"+strconv.Itoa(id), nil)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(body, &item); err != nil {
		return item, fmt.Errorf("failed to parse response: %w", err)
	}
	return item, nil
}

func (r *RemoteCollection[T]) Create(ctx context.Context, data T) (T, error) {
	var item T
	body, err := r.client.Post(ctx, r.path, data)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(body, &item); err != nil {
		return item, fmt.Errorf("failed to parse response: %w", err)
	}
	r.client.InvalidateCache()
	return item, nil
}

func (r *RemoteCollection[T]) Update(ctx context.Context, id int, data T) (T, error) {
	var item T
	body, err := r.client.Put(ctx, r.path+"/"+strconv.Itoa(id), data)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(body, &item); err != nil {
		return item, fmt.Errorf("failed to parse response: %w", err)
	}
	r.client.InvalidateCache()
	return item, nil
}

func (r *RemoteCollection[T]) Delete(ctx context.Context, id int) (int, error) {
	body, err := r.client.Delete(ctx, r.path+"/"+strconv.Itoa(id))
	if err != nil {
		return 0, err
	}
	r.client.InvalidateCache()

	// The backend echoes the deleted id; fall back to the requested id if
	// the response carries anything else.
	var deleted int
	if err := json.Unmarshal(body, &deleted); err == nil && deleted != 0 {
		return deleted, nil
	}
	return id, nil
}

// ListBy fetches a subresource listing such as /books/author/3 or
// /reviews/book/1.
func (r *RemoteCollection[T]) ListBy(ctx context.Context, relation string, id int) ([]T, error) {
	body, err := r.client.Get(ctx, r.path+"/"+relation+"/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return items, nil
}
