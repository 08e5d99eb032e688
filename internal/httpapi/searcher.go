package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/search"
)

// SearcherAPI serves the searcher role's HTTP surface.
type SearcherAPI struct {
	searcher *search.Searcher
}

func NewSearcherAPI(searcher *search.Searcher) *SearcherAPI {
	return &SearcherAPI{searcher: searcher}
}

func (sa *SearcherAPI) Routes(r chi.Router) {
	r.With(coalesceGET()).Get("/search", sa.search)
	r.With(coalesceGET()).Get("/books", sa.books)
	r.Get("/stats", sa.stats)
	r.Get("/health", health)
}

func (sa *SearcherAPI) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("q")
	if text == "" {
		writeError(w, errs.Wrap(errs.ErrBadRequest, http.StatusBadRequest))
		return
	}

	query := search.Query{Text: text, Author: q.Get("author"), Language: q.Get("language")}

	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, errs.Wrap(err, http.StatusBadRequest))
			return
		}
		query.Year = year
		query.HasYear = true
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, errs.Wrap(err, http.StatusBadRequest))
			return
		}
		query.Limit = limit
		query.HasLimit = true
	}

	results, err := sa.searcher.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":            text,
		"total_results":    len(results),
		"returned_results": len(results),
		"results":          toResultResources(results),
	})
}

func (sa *SearcherAPI) books(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, errs.Wrap(err, http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	results, err := sa.searcher.ListAll(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_results":    len(results),
		"returned_results": len(results),
		"books":            toResultResources(results),
	})
}

func (sa *SearcherAPI) stats(w http.ResponseWriter, r *http.Request) {
	totalBooks, uniqueWords, err := sa.searcher.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_books":  totalBooks,
		"unique_words": uniqueWords,
	})
}

func toResultResources(results []search.Result) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, r := range results {
		m := map[string]any{
			"bookId":   r.Metadata.BookID,
			"title":    r.Metadata.Title,
			"author":   r.Metadata.Author,
			"language": r.Metadata.Language,
			"score":    r.Score,
		}
		if r.Metadata.HasYear {
			m["year"] = r.Metadata.Year
		}
		out[i] = m
	}
	return out
}
