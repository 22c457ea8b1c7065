package cache

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const entriesTable = "entries"

type entry struct {
	Key   string
	Value []byte
}

// MemoryCache is an in-process CacheInterface used when no Redis address is
// configured and in tests.
type MemoryCache struct {
	db *memdb.MemDB
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() (*MemoryCache, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			entriesTable: {
				Name: entriesTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}
	return &MemoryCache{db: db}, nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	txn := c.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(entriesTable, "id", key)
	if err != nil {
		return nil, fmt.Errorf("memdb get %s: %w", key, err)
	}
	if raw == nil {
		return nil, ErrMiss
	}
	value := raw.(*entry).Value
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	txn := c.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(entriesTable, &entry{Key: key, Value: stored}); err != nil {
		return fmt.Errorf("memdb set %s: %w", key, err)
	}
	txn.Commit()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	txn := c.db.Txn(true)
	defer txn.Abort()
	for _, key := range keys {
		if _, err := txn.DeleteAll(entriesTable, "id", key); err != nil {
			return fmt.Errorf("memdb delete %s: %w", key, err)
		}
	}
	txn.Commit()
	return nil
}
