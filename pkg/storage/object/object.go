// Package object holds the types shared by the storage adapters.
package object

import (
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("object not found")

type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ReadLimited reads r, stopping after limit+1 bytes when limit is positive
// so an oversized object is still detectable by the caller.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	return io.ReadAll(r)
}
