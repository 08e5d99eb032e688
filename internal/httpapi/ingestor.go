package httpapi

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mterris/gutensearch/internal/datalake"
	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/gutenberg"
)

// queueProducer is the subset of *queue.Producer the ingestor needs.
type queueProducer interface {
	PublishIndexJob(id int64) error
}

// Ingestor serves the ingestor role's HTTP surface: download, validate,
// save, replicate, and publish an indexing job for a book identifier.
type Ingestor struct {
	downloader *gutenberg.Downloader
	lake       *datalake.Store
	replicator *datalake.Replicator
	members    []string
	producer   queueProducer
}

func NewIngestor(downloader *gutenberg.Downloader, lake *datalake.Store, replicator *datalake.Replicator, members []string, producer queueProducer) *Ingestor {
	return &Ingestor{downloader: downloader, lake: lake, replicator: replicator, members: members, producer: producer}
}

func (ig *Ingestor) Routes(r chi.Router) {
	r.Post("/ingest/{id}", ig.ingest)
	r.Get("/ingest/status/{id}", ig.status)
	r.Get("/ingest/list", ig.list)
	r.Post("/api/datalake/store", ig.receive)
	r.Get("/health", health)
}

func (ig *Ingestor) ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if ig.lake.IsPresent(id) {
		writeJSON(w, http.StatusOK, map[string]any{
			"bookId": id, "status": "already_exists", "path": ig.lake.Path(id),
		})
		return
	}

	raw, err := ig.downloader.Download(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := gutenberg.Parse(raw)
	if err != nil {
		writeError(w, err)
		return
	}

	path, err := ig.lake.Save(id, book.Header, book.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := ig.replicateAndPublish(ctx, id, book, raw); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"bookId": id, "status": "downloaded", "path": path,
	})
}

func (ig *Ingestor) replicateAndPublish(ctx context.Context, id int64, book gutenberg.Book, raw string) error {
	if ig.replicator != nil {
		md := gutenberg.ExtractMetadata(id, book.Header, "")
		if err := ig.replicator.Replicate(ctx, ig.members, id, md.Title, raw); err != nil {
			return err
		}
	}
	if ig.producer != nil {
		if err := ig.producer.PublishIndexJob(id); err != nil {
			return err
		}
	}
	return nil
}

func (ig *Ingestor) status(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ig.lake.IsPresent(id) {
		writeJSON(w, http.StatusNotFound, map[string]any{"bookId": id, "status": "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookId": id, "status": "available", "path": ig.lake.Path(id)})
}

func (ig *Ingestor) list(w http.ResponseWriter, r *http.Request) {
	ids, err := ig.lake.ListIDs()
	if err != nil {
		writeError(w, err)
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	writeJSON(w, http.StatusOK, map[string]any{"count": len(ids), "books": ids})
}

// receive is the replication receiver endpoint: it rehydrates a
// peer-forwarded book and saves it, without replicating or queuing it
// again.
func (ig *Ingestor) receive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, errs.Wrap(err, http.StatusBadRequest))
		return
	}

	idStr := r.FormValue("bookId")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, errs.Wrap(err, http.StatusBadRequest))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, errs.Wrap(err, http.StatusBadRequest))
		return
	}
	defer func() { _ = file.Close() }()

	buf := make([]byte, 0, 1<<20)
	chunk := make([]byte, 32*1024)
	for {
		n, readErr := file.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if readErr != nil {
			break
		}
	}

	book, err := gutenberg.Parse(string(buf))
	if err != nil {
		writeError(w, err)
		return
	}

	path, err := ig.lake.Save(id, book.Header, book.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"bookId": id, "path": path})
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errs.Wrap(err, http.StatusBadRequest)
	}
	return id, nil
}
