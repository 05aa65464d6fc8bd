// Package catalog wires the five entity stores over one persisted store,
// one API client and one mode flag. Each entity store operates against
// either backend transparently; the mode flag decides for all of them at
// once.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/api"
	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/shelfdesk/shelfdesk/internal/store"
)

// Collection keys (local) and resource paths (remote), one pair per entity.
const (
	keyBooks      = "books"
	keyAuthors    = "authors"
	keyCategories = "categories"
	keyPublishers = "publishers"
	keyReviews    = "reviews"

	// KeyUsers is the collection backing the session manager's local
	// credential checks; accounts are never served by the entity
	// dispatcher.
	KeyUsers = "users"

	pathBooks      = "/books"
	pathAuthors    = "/authors"
	pathCategories = "/categories"
	pathPublishers = "/publishers"
	pathReviews    = "/reviews"
)

// Catalog is the composed data-access layer consumed by the UI.
type Catalog struct {
	Books      *EntityStore[domain.Book]
	Authors    *EntityStore[domain.Author]
	Categories *EntityStore[domain.Category]
	Publishers *EntityStore[domain.Publisher]
	Reviews    *EntityStore[domain.Review]

	Mode   *Mode
	logger *slog.Logger
}

// New builds the catalog. client may be nil when no remote endpoint is
// configured; the mode then pins every operation to the local store.
func New(s *store.Store, client *api.Client, mode *Mode, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		booksRemote      *api.RemoteCollection[domain.Book]
		authorsRemote    *api.RemoteCollection[domain.Author]
		categoriesRemote *api.RemoteCollection[domain.Category]
		publishersRemote *api.RemoteCollection[domain.Publisher]
		reviewsRemote    *api.RemoteCollection[domain.Review]
	)
	if client != nil {
		booksRemote = api.NewRemoteCollection[domain.Book](client, pathBooks)
		authorsRemote = api.NewRemoteCollection[domain.Author](client, pathAuthors)
		categoriesRemote = api.NewRemoteCollection[domain.Category](client, pathCategories)
		publishersRemote = api.NewRemoteCollection[domain.Publisher](client, pathPublishers)
		reviewsRemote = api.NewRemoteCollection[domain.Review](client, pathReviews)
	}

	c := &Catalog{
		Books: newEntityStore(keyBooks,
			store.NewCollection(s, keyBooks, "book", domain.SeedBooks, logger),
			booksRemote, mode, validateBook, logger),
		Authors: newEntityStore(keyAuthors,
			store.NewCollection(s, keyAuthors, "author", domain.SeedAuthors, logger),
			authorsRemote, mode, validateAuthor, logger),
		Categories: newEntityStore(keyCategories,
			store.NewCollection(s, keyCategories, "category", domain.SeedCategories, logger),
			categoriesRemote, mode, validateCategory, logger),
		Publishers: newEntityStore(keyPublishers,
			store.NewCollection(s, keyPublishers, "publisher", domain.SeedPublishers, logger),
			publishersRemote, mode, validatePublisher, logger),
		Reviews: newEntityStore(keyReviews,
			store.NewCollection(s, keyReviews, "review", domain.SeedReviews, logger),
			reviewsRemote, mode, validateReview, logger),
		Mode:   mode,
		logger: logger,
	}
	return c
}

// SetLatency overrides the simulated latency on every local collection.
// Tests set it to zero.
func (c *Catalog) SetLatency(d time.Duration) {
	c.Books.local.Latency = d
	c.Authors.local.Latency = d
	c.Categories.local.Latency = d
	c.Publishers.local.Latency = d
	c.Reviews.local.Latency = d
}

// === Relation queries (recovered from the original services) ===

// BooksByAuthor lists the books written by the given author.
func (c *Catalog) BooksByAuthor(ctx context.Context, authorID int) ([]domain.Book, error) {
	return c.Books.listBy(ctx, "author", authorID, func(b domain.Book) bool {
		return b.AuthorID == authorID
	})
}

// BooksByCategory lists the books in the given category.
func (c *Catalog) BooksByCategory(ctx context.Context, categoryID int) ([]domain.Book, error) {
	return c.Books.listBy(ctx, "category", categoryID, func(b domain.Book) bool {
		return b.CategoryID == categoryID
	})
}

// BooksByPublisher lists the books released by the given publisher.
func (c *Catalog) BooksByPublisher(ctx context.Context, publisherID int) ([]domain.Book, error) {
	return c.Books.listBy(ctx, "publisher", publisherID, func(b domain.Book) bool {
		return b.PublisherID == publisherID
	})
}

// ReviewsByBook lists the reviews for the given book.
func (c *Catalog) ReviewsByBook(ctx context.Context, bookID int) ([]domain.Review, error) {
	return c.Reviews.listBy(ctx, "book", bookID, func(r domain.Review) bool {
		return r.BookID == bookID
	})
}

// === Validators ===

func validateBook(b domain.Book) error {
	if strings.TrimSpace(b.Title) == "" {
		return &domain.ValidationError{Field: "title", Message: "is required"}
	}
	return nil
}

func validateAuthor(a domain.Author) error {
	if strings.TrimSpace(a.Name) == "" {
		return &domain.ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

func validateCategory(cat domain.Category) error {
	if strings.TrimSpace(cat.Name) == "" {
		return &domain.ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

func validatePublisher(p domain.Publisher) error {
	if strings.TrimSpace(p.Name) == "" {
		return &domain.ValidationError{Field: "name", Message: "is required"}
	}
	return nil
}

func validateReview(r domain.Review) error {
	if r.BookID <= 0 {
		return &domain.ValidationError{Field: "bookId", Message: "is required"}
	}
	if r.Rating < 1 || r.Rating > 5 {
		return &domain.ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	return nil
}
