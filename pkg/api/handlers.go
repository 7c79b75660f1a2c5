package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/scitools/isiskit/pkg/idfile"
	"github.com/scitools/isiskit/pkg/record"
)

// Server holds the API server state
type Server struct {
	engine  Engine
	cache   ResultCache // optional; nil disables caching
	codec   *idfile.Codec
	config  ServerConfig
	metrics *Metrics
	log     *logrus.Entry
}

// NewServer creates a new API server
func NewServer(engine Engine, cache ResultCache, codec *idfile.Codec, config ServerConfig, metrics *Metrics) *Server {
	if codec == nil {
		codec = idfile.NewCodec(nil)
	}
	return &Server{
		engine:  engine,
		cache:   cache,
		codec:   codec,
		config:  config,
		metrics: metrics,
		log:     logrus.WithField("component", "api"),
	}
}

// databasePath resolves a database name inside the configured data
// directory, rejecting names that would escape it.
func (s *Server) databasePath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid database name %q", name)
	}
	return filepath.Join(s.config.DataDir, name), nil
}

// fstPath returns the FST file for a database, or "" when none is
// configured or present, which leaves the indexes untouched.
func (s *Server) fstPath(name string) string {
	if s.config.FSTDir == "" {
		return ""
	}
	path := filepath.Join(s.config.FSTDir, name+".fst")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	available := s.engine.IsAvailable(r.Context())
	s.metrics.RecordHealthCheck(available)
	if !available {
		sendError(w, "CISIS engine is not available", http.StatusServiceUnavailable)
		return
	}
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleSearch exports the records of a database, sliced by the boolean
// expression in the q parameter when one is given.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	db := chi.URLParam(r, "db")
	expression := r.URL.Query().Get("q")

	dbPath, err := s.databasePath(db)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if records, ok := s.cachedRecords(db, expression); ok {
		sendSuccess(w, records)
		return
	}

	start := time.Now()
	records, err := s.engine.GetRecords(r.Context(), dbPath, expression)
	s.metrics.RecordEngineOperation("search", err == nil, time.Since(start))
	if err != nil {
		s.log.WithError(err).Errorf("search on %s failed", db)
		sendError(w, fmt.Sprintf("search failed: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordCodecRecords("parse", len(records))

	s.storeInCache(db, expression, records)
	sendSuccess(w, records)
}

// handleImport loads the posted records into a database, appending by
// default or recreating it when the request says reset.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	db := chi.URLParam(r, "db")
	dbPath, err := s.databasePath(db)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Records) == 0 {
		sendError(w, "no records to import", http.StatusBadRequest)
		return
	}

	workDir, err := os.MkdirTemp("", "isiskit-import")
	if err != nil {
		sendError(w, fmt.Sprintf("import failed: %v", err), http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(workDir)

	idFile := filepath.Join(workDir, ksuid.New().String()+".id")
	if err := s.codec.WriteFile(idFile, req.Records); err != nil {
		var rangeErr *idfile.RangeError
		if errors.As(err, &rangeErr) {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		sendError(w, fmt.Sprintf("import failed: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordCodecRecords("serialize", len(req.Records))

	fst := s.fstPath(db)
	start := time.Now()
	if req.Reset {
		err = s.engine.IDFileToDatabase(r.Context(), idFile, dbPath, fst)
		s.metrics.RecordEngineOperation("create", err == nil, time.Since(start))
	} else {
		err = s.engine.AppendIDFileToDatabase(r.Context(), idFile, dbPath, fst)
		s.metrics.RecordEngineOperation("append", err == nil, time.Since(start))
	}
	if err != nil {
		s.log.WithError(err).Errorf("import into %s failed", db)
		sendError(w, fmt.Sprintf("import failed: %v", err), http.StatusInternalServerError)
		return
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(db); err != nil {
			s.log.WithError(err).Warnf("could not invalidate cache for %s", db)
		}
	}
	sendSuccess(w, map[string]int{"imported": len(req.Records)})
}

// cachedRecords returns the parsed records of a cached search, if any.
// Cache failures degrade to a miss.
func (s *Server) cachedRecords(db, expression string) ([]record.Record, bool) {
	if s.cache == nil {
		return nil, false
	}
	stream, hit, err := s.cache.Get(db, expression)
	if err != nil {
		s.log.WithError(err).Warnf("cache lookup for %s failed", db)
		return nil, false
	}
	s.metrics.RecordCacheLookup(hit)
	if !hit {
		return nil, false
	}
	records, err := s.codec.Parse(stream)
	if err != nil {
		s.log.WithError(err).Warnf("cached stream for %s is corrupt", db)
		return nil, false
	}
	return records, true
}

// storeInCache serializes the records back to an ID stream and caches
// it, best effort.
func (s *Server) storeInCache(db, expression string, records []record.Record) {
	if s.cache == nil {
		return
	}
	stream, err := s.codec.Serialize(records)
	if err != nil {
		return
	}
	if err := s.cache.Put(db, expression, stream); err != nil {
		s.log.WithError(err).Warnf("could not cache search result for %s", db)
	}
}
