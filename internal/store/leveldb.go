package store

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelKV is a persistent KV using LevelDB.
type LevelKV struct {
	db *leveldb.DB
}

// NewLevelKV creates or opens a LevelDB database at path.
func NewLevelKV(path string) (*LevelKV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelKV{db: db}, nil
}

func (l *LevelKV) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (l *LevelKV) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

// Apply writes ops as one LevelDB batch.
func (l *LevelKV) Apply(ops []Op) error {
	batch := new(leveldb.Batch)
	for _, op := range ops {
		if op.Delete {
			batch.Delete(op.Key)
		} else {
			batch.Put(op.Key, op.Value)
		}
	}
	return l.db.Write(batch, nil)
}

func (l *LevelKV) Close() error {
	return l.db.Close()
}
