// Package search answers ranked, filtered queries over the cluster's
// metadata map and inverted index.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/mterris/gutensearch/internal/clusterstate"
	"github.com/mterris/gutensearch/internal/collections"
	"github.com/mterris/gutensearch/internal/gutenberg"
	"github.com/mterris/gutensearch/internal/indexing"
)

// Query is a search request.
type Query struct {
	Text     string
	Author   string // optional, substring match
	Language string // optional, case-insensitive equality
	Year     int    // optional, exact match; HasYear selects whether it applies
	HasYear  bool
	Limit    int  // only consulted when HasLimit is true
	HasLimit bool
}

// Result is a single ranked hit.
type Result struct {
	Metadata gutenberg.Metadata
	Score    int
}

// Searcher answers Search and ListAll against cluster state.
type Searcher struct {
	metadata     clusterstate.Map
	postings     clusterstate.MultiMap
	maxResults   int
	defaultLimit int
}

func New(metadata clusterstate.Map, postings clusterstate.MultiMap, maxResults, defaultLimit int) *Searcher {
	return &Searcher{metadata: metadata, postings: postings, maxResults: maxResults, defaultLimit: defaultLimit}
}

// Search runs a ranked, filtered query over the cluster's postings and metadata.
func (s *Searcher) Search(ctx context.Context, q Query) ([]Result, error) {
	limit := s.defaultLimit
	if q.HasLimit {
		limit = q.Limit
	}
	if limit > s.maxResults {
		limit = s.maxResults
	}
	// A limit of 0 (explicitly requested) returns the empty list without
	// consulting the metadata store.
	if limit <= 0 {
		return []Result{}, nil
	}

	tokens := indexing.TokenizeQuery(q.Text)
	if len(tokens) == 0 {
		return []Result{}, nil
	}

	union := collections.Set[int64]{}
	tokenPostings := make(map[string]collections.Set[int64], len(tokens))
	for _, t := range tokens {
		ids, err := s.postings.Get(ctx, t)
		if err != nil {
			return nil, err
		}
		tokenPostings[t] = ids
		union = collections.Union(union, ids)
	}
	if len(union) == 0 {
		return []Result{}, nil
	}

	candidates, err := s.metadata.GetAll(ctx, union.Slice())
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for id, md := range candidates {
		if !matchesFilters(md, q) {
			continue
		}
		results = append(results, Result{
			Metadata: md,
			Score:    score(md, tokens, tokenPostings, id),
		})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Stats reports the total indexed book count and distinct term count, for
// the searcher's /stats endpoint.
func (s *Searcher) Stats(ctx context.Context) (totalBooks, uniqueWords int, err error) {
	totalBooks, err = s.metadata.Size(ctx)
	if err != nil {
		return 0, 0, err
	}
	terms, err := s.postings.KeySet(ctx)
	if err != nil {
		return 0, 0, err
	}
	return totalBooks, len(terms), nil
}

// ListAll returns up to min(limit, maxResults) metadata records with score
// 0, in the store's iteration order.
func (s *Searcher) ListAll(ctx context.Context, limit int) ([]Result, error) {
	if limit > s.maxResults {
		limit = s.maxResults
	}
	if limit <= 0 {
		return []Result{}, nil
	}

	values, err := s.metadata.Values(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) > limit {
		values = values[:limit]
	}

	out := make([]Result, len(values))
	for i, md := range values {
		out[i] = Result{Metadata: md}
	}
	return out, nil
}

func matchesFilters(md gutenberg.Metadata, q Query) bool {
	if q.Author != "" && !strings.Contains(strings.ToLower(md.Author), strings.ToLower(q.Author)) {
		return false
	}
	if q.Language != "" && !strings.EqualFold(md.Language, q.Language) {
		return false
	}
	if q.HasYear {
		if !md.HasYear || md.Year != q.Year {
			return false
		}
	}
	return true
}

// score awards +10 per token in the title, +5 per token in the author, +1
// per token whose postings contain id.
func score(md gutenberg.Metadata, tokens []string, tokenPostings map[string]collections.Set[int64], id int64) int {
	title := strings.ToLower(md.Title)
	author := strings.ToLower(md.Author)

	total := 0
	for _, t := range tokens {
		if strings.Contains(title, t) {
			total += 10
		}
		if strings.Contains(author, t) {
			total += 5
		}
		if tokenPostings[t].Contains(id) {
			total++
		}
	}
	return total
}

// sortResults orders by score descending, ties broken by ascending bookId.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Metadata.BookID < results[j].Metadata.BookID
	})
}
