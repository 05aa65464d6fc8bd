package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shelfdesk/shelfdesk/internal/api"
	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/shelfdesk/shelfdesk/internal/log"
	"github.com/shelfdesk/shelfdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalCatalog(t *testing.T) *Catalog {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mode := NewMode(st, false, log.NullLogger())
	cat := New(st, nil, mode, log.NullLogger())
	cat.SetLatency(0)
	return cat
}

// newSwitchableCatalog pairs a request-counting remote with a local store so
// tests can flip the mode flag mid-flight.
func newSwitchableCatalog(t *testing.T) (*Catalog, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode([]domain.Book{{ID: 100, Title: "Remote Only"}})
	}))
	t.Cleanup(srv.Close)

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mode := NewMode(st, true, log.NullLogger())
	client := api.NewClient(srv.URL, nil, log.NullLogger())
	cat := New(st, client, mode, log.NullLogger())
	cat.SetLatency(0)
	return cat, &calls
}

func TestLocalCRUDRoundTrip(t *testing.T) {
	cat := newLocalCatalog(t)
	ctx := context.Background()

	books, err := cat.Books.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3, "empty collection is seeded on first read")

	created, err := cat.Books.Create(ctx, domain.Book{Title: "Brave New World", AuthorID: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)

	updated, err := cat.Books.Update(ctx, created.ID, domain.Book{Title: "Brave New World (rev)"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	id, err := cat.Books.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	_, err = cat.Books.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestValidationRunsBeforeAnyBackend(t *testing.T) {
	cat := newLocalCatalog(t)
	ctx := context.Background()

	var valErr *domain.ValidationError

	_, err := cat.Books.Create(ctx, domain.Book{Title: "   "})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "title", valErr.Field)

	_, err = cat.Authors.Create(ctx, domain.Author{Biography: "no name"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "name", valErr.Field)

	_, err = cat.Reviews.Create(ctx, domain.Review{BookID: 1, Rating: 6})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "rating", valErr.Field)

	_, err = cat.Reviews.Create(ctx, domain.Review{Rating: 3})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "bookId", valErr.Field)

	_, err = cat.Books.GetByID(ctx, 0)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "id", valErr.Field)

	_, err = cat.Books.Delete(ctx, -1)
	assert.ErrorAs(t, err, &valErr)
}

func TestModeSwitchChangesBackendForAllEntities(t *testing.T) {
	cat, calls := newSwitchableCatalog(t)
	ctx := context.Background()

	remote, err := cat.Books.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, "Remote Only", remote[0].Title)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, cat.Mode.SetLocal(true))

	local, err := cat.Books.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, local, 3, "local store serves its own seed data")
	assert.Equal(t, int32(1), calls.Load(), "no network call in local mode")

	require.NoError(t, cat.Mode.Toggle())
	assert.False(t, cat.Mode.UseLocal())
}

func TestModeFlagPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	require.NoError(t, err)

	mode := NewMode(st, true, log.NullLogger())
	require.False(t, mode.UseLocal(), "remote endpoint implies remote default")
	require.NoError(t, mode.SetLocal(true))
	require.NoError(t, st.Close())

	st2, err := store.Open(dir)
	require.NoError(t, err)
	defer st2.Close()

	mode2 := NewMode(st2, true, log.NullLogger())
	assert.True(t, mode2.UseLocal(), "persisted flag beats the default")
}

func TestModeChangeFiresHooks(t *testing.T) {
	st, err := store.Open("")
	require.NoError(t, err)
	defer st.Close()

	mode := NewMode(st, false, log.NullLogger())
	var fired int
	mode.OnChange(func() { fired++ })

	require.NoError(t, mode.SetLocal(true))
	assert.Equal(t, 0, fired, "no-op switch stays silent")

	require.NoError(t, mode.SetLocal(false))
	require.NoError(t, mode.SetLocal(true))
	assert.Equal(t, 2, fired)
}

func TestRelationQueriesLocal(t *testing.T) {
	cat := newLocalCatalog(t)
	ctx := context.Background()

	orwell, err := cat.BooksByAuthor(ctx, 2)
	require.NoError(t, err)
	require.Len(t, orwell, 1)
	assert.Equal(t, "1984", orwell[0].Title)

	fiction, err := cat.BooksByCategory(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, fiction, 1)

	scribner, err := cat.BooksByPublisher(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, scribner, 1)

	reviews, err := cat.ReviewsByBook(ctx, 2)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)

	none, err := cat.BooksByAuthor(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRelationQueriesRemoteUseSubresourcePath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]domain.Book{})
	}))
	defer srv.Close()

	st, err := store.Open("")
	require.NoError(t, err)
	defer st.Close()

	mode := NewMode(st, true, log.NullLogger())
	cat := New(st, api.NewClient(srv.URL, nil, log.NullLogger()), mode, log.NullLogger())

	_, err = cat.BooksByAuthor(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "/books/author/3", gotPath)
}

func TestSearchBooks(t *testing.T) {
	cat := newLocalCatalog(t)
	ctx := context.Background()

	hits, err := cat.SearchBooks(ctx, "gatsby")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "The Great Gatsby", hits[0].Title)

	none, err := cat.SearchBooks(ctx, "zzzzzz")
	require.NoError(t, err)
	assert.Empty(t, none)

	blank, err := cat.SearchBooks(ctx, "   ")
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestRemoteFailurePropagatesWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	st, err := store.Open("")
	require.NoError(t, err)
	defer st.Close()

	mode := NewMode(st, true, log.NullLogger())
	cat := New(st, api.NewClient(srv.URL, nil, log.NullLogger()), mode, log.NullLogger())

	_, err = cat.Books.GetAll(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}
