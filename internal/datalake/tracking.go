package datalake

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// trackingFile records which identifiers are present in the datalake,
// serialized ascending with duplicates coalesced. Bucket placement stores
// one identifier per line; timestamp placement additionally
// stores the entry's directory as "id|path". Concurrent writers on the same
// node serialize through an advisory whole-file lock (github.com/gofrs/flock)
// on a sidecar "<name>.lock" file, not on the tracking file itself, which
// each write replaces by renaming a temporary file over it. The book files
// themselves are not locked.
type trackingFile struct {
	path        string
	storesPaths bool
}

func newTrackingFile(root, filename string, storesPaths bool) *trackingFile {
	return &trackingFile{
		path:        filepath.Join(root, filename),
		storesPaths: storesPaths,
	}
}

// append adds id (and, for timestamp placement, its directory) to the
// tracking file, coalescing it with any existing entry for id, and rewrites
// the file in ascending identifier order.
func (t *trackingFile) append(id int64, dir string) error {
	lock := flock.New(t.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking tracking file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := t.readLocked()
	if err != nil {
		return err
	}

	entries[id] = dir

	return t.writeLocked(entries)
}

// listIDs returns the sorted identifiers currently tracked.
func (t *trackingFile) listIDs() ([]int64, error) {
	entries, err := t.readLocked()
	if err != nil {
		return nil, err
	}
	return sortedKeys(entries), nil
}

func (t *trackingFile) readLocked() (map[int64]string, error) {
	entries := map[int64]string{}

	f, err := os.Open(t.path)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening tracking file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		idPart, dirPart := line, ""
		if i := strings.IndexByte(line, '|'); i >= 0 {
			idPart, dirPart = line[:i], line[i+1:]
		}

		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			continue // Skip malformed lines rather than fail the whole read.
		}
		entries[id] = dirPart
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading tracking file: %w", err)
	}

	return entries, nil
}

func (t *trackingFile) writeLocked(entries map[int64]string) error {
	tmp := t.path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating tracking file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, id := range sortedKeys(entries) {
		if t.storesPaths {
			fmt.Fprintf(w, "%d|%s\n", id, entries[id])
		} else {
			fmt.Fprintf(w, "%d\n", id)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flushing tracking file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing tracking file: %w", err)
	}

	return os.Rename(tmp, t.path)
}

func sortedKeys(entries map[int64]string) []int64 {
	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
