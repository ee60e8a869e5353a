// Package store persists small settings in named namespaces.
package store

import "errors"

// ErrClosed is returned by writes to a closed Store.
var ErrClosed = errors.New("store: closed")

// Backend opens namespaces.
type Backend interface {
	Open(namespace string) (Store, error)
}

// Store is a namespace of byte-valued keys.
type Store interface {
	// GetByte returns the value stored under key, or def if it is absent.
	GetByte(key string, def byte) byte

	// PutByte stores v under key and persists it.
	PutByte(key string, v byte) error

	Close() error
}
