// Package storage provides the key-value persistence layer shared by the
// venue engines. Records are RLP encoded, so stored structs must restrict
// themselves to unsigned integers, booleans, strings, byte slices and nested
// structs thereof.
package storage

import "github.com/ethereum/go-ethereum/rlp"

// KV abstracts the subset of store functionality required by the state
// manager. Implementations must be safe for use by a single writer with
// concurrent readers.
type KV interface {
	// KVGet decodes the record stored under key into out. The boolean
	// reports whether the key was present.
	KVGet(key []byte, out interface{}) (bool, error)
	// KVPut encodes value and stores it under key, replacing any previous
	// record.
	KVPut(key []byte, value interface{}) error
	// KVDelete removes the record stored under key. Deleting a missing key
	// is not an error.
	KVDelete(key []byte) error
	// KVIterate visits every record whose key begins with prefix in
	// lexicographic key order. Returning an error from fn stops the
	// iteration and surfaces the error.
	KVIterate(prefix []byte, fn func(key, value []byte) error) error
}

// DecodeValue decodes an encoded record, as handed to a KVIterate callback,
// into out.
func DecodeValue(value []byte, out interface{}) error {
	return rlp.DecodeBytes(value, out)
}
