package storage

import (
	"bytes"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	bolt "go.etcd.io/bbolt"
)

var stateBucket = []byte("state")

// Bolt persists venue state in a single-file BoltDB database. All records
// live in one bucket; key namespacing is the state manager's concern.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt initialises (and migrates) the BoltDB-backed store at path.
func OpenBolt(path string, options *bolt.Options) (*Bolt, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// Close releases the underlying Bolt database handle.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// KVGet implements the KV interface.
func (b *Bolt) KVGet(key []byte, out interface{}) (bool, error) {
	var raw []byte
	if err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(stateBucket).Get(key); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPut implements the KV interface.
func (b *Bolt) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put(key, encoded)
	})
}

// KVDelete implements the KV interface.
func (b *Bolt) KVDelete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Delete(key)
	})
}

// KVIterate implements the KV interface.
func (b *Bolt) KVIterate(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(stateBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			key := append([]byte(nil), k...)
			value := append([]byte(nil), v...)
			if err := fn(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}
