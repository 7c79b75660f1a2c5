package api

import (
	"context"

	"github.com/scitools/isiskit/pkg/record"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ImportRequest carries records to load into a database.
type ImportRequest struct {
	// Reset recreates the database from these records instead of
	// appending to it.
	Reset   bool            `json:"reset,omitempty"`
	Records []record.Record `json:"records"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port    int
	Bind    string
	APIKey  string
	DataDir string // Directory holding the master databases
	FSTDir  string // Directory holding per-database FST files, may be empty
}

// Engine is the slice of the CISIS engine the facade needs.
type Engine interface {
	IsAvailable(ctx context.Context) bool
	GetRecords(ctx context.Context, db, expression string) ([]record.Record, error)
	IDFileToDatabase(ctx context.Context, idFile, db, fst string) error
	AppendIDFileToDatabase(ctx context.Context, idFile, db, fst string) error
}

// ResultCache is the cache surface used by search handlers; entries hold
// serialized ID streams.
type ResultCache interface {
	Get(database, expression string) ([]byte, bool, error)
	Put(database, expression string, stream []byte) error
	Invalidate(database string) error
}
