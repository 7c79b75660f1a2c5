// Package cache keeps exported ID streams from recent searches so that
// repeated queries against an unchanged database skip the mx round trip.
package cache

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

// ResultCache is a pebble-backed cache of ID-format streams keyed by
// database name and search expression.
type ResultCache struct {
	db *pebble.DB
}

func Open(path string) (*ResultCache, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &ResultCache{db: db}, nil
}

// key namespaces entries per database; the NUL separator cannot occur in
// a database name or a CISIS boolean expression.
func key(database, expression string) []byte {
	return append(append([]byte(database), 0), expression...)
}

// Put stores the stream for a database/expression pair.
func (c *ResultCache) Put(database, expression string, stream []byte) error {
	return c.db.Set(key(database, expression), stream, pebble.NoSync)
}

// Get returns the cached stream and whether it was present.
func (c *ResultCache) Get(database, expression string) ([]byte, bool, error) {
	data, closer, err := c.db.Get(key(database, expression))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Invalidate drops every entry of one database, for use after an import
// changes its contents.
func (c *ResultCache) Invalidate(database string) error {
	start := append([]byte(database), 0)
	end := append([]byte(database), 1)
	return c.db.DeleteRange(start, end, pebble.NoSync)
}

func (c *ResultCache) Close() error {
	return c.db.Close()
}
