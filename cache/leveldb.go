package cache

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore persists entries in a LevelDB database on disk.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens (or creates) the store under dataDir.
func NewLevelDBStore(dataDir string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(filepath.Join(dataDir, "pubkeys.db"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open level db file: %w", err)
	}

	return &LevelDBStore{
		db: db,
	}, nil
}

func (l *LevelDBStore) Get(key string) (string, error) {
	value, err := l.db.Get([]byte(key), &opt.ReadOptions{})
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cache entry: %w", err)
	}
	return string(value), nil
}

func (l *LevelDBStore) Put(key, value string) error {
	if err := l.db.Put([]byte(key), []byte(value), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

func (l *LevelDBStore) Delete(key string) error {
	if err := l.db.Delete([]byte(key), &opt.WriteOptions{}); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (l *LevelDBStore) Close() error {
	return l.db.Close()
}
