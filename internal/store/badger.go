// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db       *badger.DB
	inMemory bool
}

// Options configures OpenBadger.
type Options struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests and the "memory" backend.
	InMemory bool
}

// OpenBadger opens (or creates) a store.
//
//	st, err := store.OpenBadger(store.Options{Path: "/data/culturalquest"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func OpenBadger(o Options) (*BadgerStore, error) {
	opts := badger.DefaultOptions(o.Path)
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = !o.InMemory

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db, inMemory: o.InMemory}, nil
}

// OpenMemory opens an in-memory store.
func OpenMemory() (*BadgerStore, error) {
	return OpenBadger(Options{InMemory: true})
}

// Get decodes the value at (userID, key) into dst.
func (s *BadgerStore) Get(ctx context.Context, userID, key string, dst interface{}) error {
	k, err := encodeKey(userID, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return decodeValue(key, val, dst)
		})
	})
}

// Set encodes v and writes it at (userID, key).
func (s *BadgerStore) Set(ctx context.Context, userID, key string, v interface{}) error {
	k, err := encodeKey(userID, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, data)
	})
}

// Delete removes (userID, key).
func (s *BadgerStore) Delete(ctx context.Context, userID, key string) error {
	k, err := encodeKey(userID, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
}

// Scan calls fn for every user that holds key.
func (s *BadgerStore) Scan(ctx context.Context, key string, fn func(userID string, decode func(dst interface{}) error) error) error {
	prefix := []byte(userPrefix)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			userID, itemKey, ok := decodeKey(item.Key())
			if !ok || itemKey != key {
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s for %s: %w", key, userID, err)
			}
			decode := func(dst interface{}) error {
				return decodeValue(key, val, dst)
			}
			if err := fn(userID, decode); err != nil {
				return err
			}
		}
		return nil
	})
}

// Flush syncs pending writes to disk.
func (s *BadgerStore) Flush(_ context.Context) error {
	if s.inMemory {
		return nil
	}
	return s.db.Sync()
}

// RunGC reclaims value-log space. A pass with nothing to rewrite is not an error.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	if s.inMemory {
		return nil
	}
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
		return nil
	}
	return err
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func decodeValue(key string, val []byte, dst interface{}) error {
	if err := json.Unmarshal(val, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

var _ Store = (*BadgerStore)(nil)
