package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shelfdesk/shelfdesk/internal/domain"
)

// SearchBooks fuzzy-matches the query against book titles on the active
// backend and returns the matches ranked best-first. An empty query returns
// nothing.
func (c *Catalog) SearchBooks(ctx context.Context, query string) ([]domain.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	books, err := c.Books.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Sort(ranks)

	results := make([]domain.Book, 0, len(ranks))
	for _, rank := range ranks {
		results = append(results, books[rank.OriginalIndex])
	}

	c.logger.Debug("book search", "query", query, "results", len(results))
	return results, nil
}
