package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/shelfdesk/shelfdesk/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBookServer serves a minimal /books resource backed by a slice.
func fakeBookServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	books := []domain.Book{
		{ID: 1, Title: "The Hobbit", AuthorID: 1},
		{ID: 2, Title: "The Silmarillion", AuthorID: 1},
		{ID: 3, Title: "Dune", AuthorID: 2},
	}
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/books", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(books)
		case http.MethodPost:
			var b domain.Book
			require.NoError(t, json.NewDecoder(r.Body).Decode(&b))
			b.ID = 4
			books = append(books, b)
			json.NewEncoder(w).Encode(b)
		}
	})
	mux.HandleFunc("/books/author/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/books/author/"))
		var matched []domain.Book
		for _, b := range books {
			if b.AuthorID == id {
				matched = append(matched, b)
			}
		}
		json.NewEncoder(w).Encode(matched)
	})
	mux.HandleFunc("/books/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/books/"))
		idx := -1
		for i, b := range books {
			if b.ID == id {
				idx = i
			}
		}
		if idx < 0 {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "book not found"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(books[idx])
		case http.MethodPut:
			var b domain.Book
			require.NoError(t, json.NewDecoder(r.Body).Decode(&b))
			b.ID = id
			books[idx] = b
			json.NewEncoder(w).Encode(b)
		case http.MethodDelete:
			books = append(books[:idx], books[idx+1:]...)
			json.NewEncoder(w).Encode(id)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newBookBackend(t *testing.T) (*RemoteCollection[domain.Book], *atomic.Int32) {
	t.Helper()
	srv, calls := fakeBookServer(t)
	client := NewClient(srv.URL, nil, log.NullLogger())
	return NewRemoteCollection[domain.Book](client, "/books"), calls
}

func TestRemoteCollectionGetAll(t *testing.T) {
	books, _ := newBookBackend(t)

	all, err := books.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "The Hobbit", all[0].Title)
}

func TestRemoteCollectionGetByID(t *testing.T) {
	books, _ := newBookBackend(t)

	book, err := books.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)

	_, err = books.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoteCollectionCreate(t *testing.T) {
	books, _ := newBookBackend(t)

	created, err := books.Create(context.Background(), domain.Book{Title: "Hyperion", AuthorID: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID, "server assigns the id")
	assert.Equal(t, "Hyperion", created.Title)

	all, err := books.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4, "create invalidates the list cache")
}

func TestRemoteCollectionUpdate(t *testing.T) {
	books, _ := newBookBackend(t)

	updated, err := books.Update(context.Background(), 2, domain.Book{ID: 999, Title: "Unfinished Tales"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.ID)
	assert.Equal(t, "Unfinished Tales", updated.Title)
}

func TestRemoteCollectionDelete(t *testing.T) {
	books, _ := newBookBackend(t)

	id, err := books.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	all, err := books.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = books.Delete(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoteCollectionListBy(t *testing.T) {
	books, calls := newBookBackend(t)

	tolkien, err := books.ListBy(context.Background(), "author", 1)
	require.NoError(t, err)
	assert.Len(t, tolkien, 2)

	// A second identical listing is answered from cache.
	before := calls.Load()
	_, err = books.ListBy(context.Background(), "author", 1)
	require.NoError(t, err)
	assert.Equal(t, before, calls.Load())
}
