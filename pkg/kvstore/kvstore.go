package kvstore

import (
	"encoding/json"
	"errors"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Store is a thin transactional KV wrapper over Badger. Every ledger
// operation runs inside a single Update; Badger guarantees the whole
// transaction commits or nothing does.
type Store struct {
	db *badger.DB
}

// ErrNotFound 表示键不存在
var ErrNotFound = errors.New("kvstore: key not found")

type OpenOptions struct {
	Path     string
	InMemory bool // for tests; Path is ignored when set
	ReadOnly bool
}

func Open(opts OpenOptions) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(opts.Path) == "" {
			return nil, errors.New("kvstore: path is required")
		}
		bopts = badger.DefaultOptions(opts.Path).WithReadOnly(opts.ReadOnly)
	}
	bopts = bopts.WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tx wraps a badger transaction with JSON value helpers.
type Tx struct {
	txn *badger.Txn
}

// Update runs fn in a read-write transaction. If fn returns an error the
// transaction is discarded and no write becomes visible.
func (s *Store) Update(fn func(tx *Tx) error) error {
	if s == nil || s.db == nil {
		return errors.New("kvstore: not opened")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(tx *Tx) error) error {
	if s == nil || s.db == nil {
		return errors.New("kvstore: not opened")
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// GetJSON loads the value at key into out. Returns ErrNotFound when absent.
func (tx *Tx) GetJSON(key string, out interface{}) error {
	item, err := tx.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// SetJSON stores v at key as JSON.
func (tx *Tx) SetJSON(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.txn.Set([]byte(key), b)
}

// Has reports whether key exists.
func (tx *Tx) Has(key string) (bool, error) {
	_, err := tx.txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (tx *Tx) Delete(key string) error {
	return tx.txn.Delete([]byte(key))
}

// IteratePrefix calls fn for every key with the given prefix, in key order.
func (tx *Tx) IteratePrefix(prefix string, fn func(key string, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := tx.txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if err := item.Value(func(val []byte) error {
			return fn(key, append([]byte(nil), val...))
		}); err != nil {
			return err
		}
	}
	return nil
}
