// Package pool provides a BadgerDB-backed index over a pool of tagged graph
// files for the endpoint diagnoser.
//
// Diagnosing against a large pool repeatedly parses the same multi-megabyte
// graph files; the index stores each file's vertex→tag table once, keyed by
// file path and invalidated by modification time, so later lookups are
// single key reads.
package pool

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/tramo-dev/tramo-go/internal/graph"
)

// Key prefixes for different data types
const (
	prefixVertex = "v:" // v:<file>\x00<vertexKey> -> tag
	prefixMeta   = "m:" // m:<file> -> fileMeta JSON
)

// fileMeta records what was indexed for one graph file.
type fileMeta struct {
	VertexCount int   `json:"vertex_count"`
	EdgeCount   int   `json:"edge_count"`
	ModTime     int64 `json:"mod_time"`
}

// Index is a badger-backed vertex-tag index over graph files. It implements
// the diagnoser's Source interface, indexing files lazily on first lookup
// and re-indexing when a file's modification time changes.
type Index struct {
	db *badger.DB
	mu sync.Mutex
}

// Open opens or creates the index at the given directory.
func Open(dir string) (*Index, error) {
	opts := badger.DefaultOptions(dir).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening pool index: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// Lookup reports the tag of a vertex key within a graph file, indexing the
// file first if it is missing from the index or stale.
func (ix *Index) Lookup(file, key string) (graph.System, bool, error) {
	if err := ix.ensureIndexed(file); err != nil {
		return "", false, err
	}

	var tag graph.System
	found := false
	err := ix.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(vertexKey(file, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			tag = graph.System(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("reading pool index: %w", err)
	}
	return tag, found, nil
}

// Meta returns the indexed stats for a file, if present.
func (ix *Index) Meta(file string) (vertices, edges int, ok bool) {
	var meta fileMeta
	err := ix.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(file))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return 0, 0, false
	}
	return meta.VertexCount, meta.EdgeCount, true
}

// ensureIndexed indexes the file when the stored meta is missing or its
// recorded mod time no longer matches the file on disk.
func (ix *Index) ensureIndexed(file string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("stat graph file: %w", err)
	}

	var meta fileMeta
	have := false
	err = ix.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(file))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &meta); err != nil {
				return err
			}
			have = true
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("reading pool index meta: %w", err)
	}

	if have && meta.ModTime == info.ModTime().Unix() {
		return nil
	}
	return ix.indexFile(file, info.ModTime().Unix())
}

// indexFile parses the graph file and writes its vertex-tag table in one
// batch.
func (ix *Index) indexFile(file string, modTime int64) error {
	store, err := graph.LoadFile(file)
	if err != nil {
		return err
	}

	// Drop the file's previous vertex entries so vertices removed from the
	// file are no longer found.
	if err := ix.db.DropPrefix([]byte(prefixVertex + file + "\x00")); err != nil {
		return fmt.Errorf("clearing pool index: %w", err)
	}

	wb := ix.db.NewWriteBatch()
	defer wb.Cancel()

	count := 0
	for _, key := range store.VertexKeys() {
		tag, err := store.VertexTag(key)
		if err != nil {
			continue
		}
		if err := wb.Set(vertexKey(file, key), []byte(tag)); err != nil {
			return fmt.Errorf("writing pool index: %w", err)
		}
		count++
	}

	meta := fileMeta{
		VertexCount: count,
		EdgeCount:   store.EdgeCount(),
		ModTime:     modTime,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := wb.Set(metaKey(file), data); err != nil {
		return fmt.Errorf("writing pool index meta: %w", err)
	}

	return wb.Flush()
}

func vertexKey(file, key string) []byte {
	return []byte(prefixVertex + file + "\x00" + key)
}

func metaKey(file string) []byte {
	return []byte(prefixMeta + file)
}
