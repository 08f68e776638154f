package cache

import "time"

// BytesCache caches serialized HTTP response bodies. Implementations are
// safe for concurrent use; a miss is (nil, false, nil), never an error.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
