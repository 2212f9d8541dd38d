// Pedalbridge - Audio Plugin Host Protocol Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pedalbridge

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pedalbridge/internal/logging"
)

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal is closed")

const prefixInstance = "instance:"

// Entry is one journaled record.
type Entry struct {
	Key  string
	Data []byte
}

// Journal persists instance records in BadgerDB.
type Journal struct {
	db       *badger.DB
	inMemory bool

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the journal at path. An empty path keeps it in memory.
func Open(path string) (*Journal, error) {
	opts := badger.DefaultOptions(path)
	inMemory := path == ""
	if inMemory {
		opts = opts.WithInMemory(true)
	}
	opts.SyncWrites = !inMemory

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().Str("path", path).Bool("in_memory", inMemory).Msg("Instance journal opened")
	return &Journal{db: db, inMemory: inMemory}, nil
}

// InMemory reports whether the journal is volatile.
func (j *Journal) InMemory() bool {
	return j.inMemory
}

// Put stores v as JSON under key.
func (j *Journal) Put(_ context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode journal entry %s: %w", key, err)
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrClosed
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(prefixInstance+key), data))
	})
	if err != nil {
		return fmt.Errorf("write journal entry %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (j *Journal) Delete(_ context.Context, key string) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrClosed
	}

	err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixInstance + key))
	})
	if err != nil {
		return fmt.Errorf("delete journal entry %s: %w", key, err)
	}
	return nil
}

// Entries returns every record in key order.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, ErrClosed
	}

	var entries []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixInstance)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", item.Key(), err)
			}
			entries = append(entries, Entry{
				Key:  string(item.Key()[len(prefix):]),
				Data: data,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// Clear removes every record.
func (j *Journal) Clear(_ context.Context) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrClosed
	}

	if err := j.db.DropPrefix([]byte(prefixInstance)); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Instance journal closed")
	return nil
}
