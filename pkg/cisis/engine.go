package cisis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/scitools/isiskit/pkg/idfile"
	"github.com/scitools/isiskit/pkg/record"
)

// Engine fronts the two CISIS builds in circulation and dispatches each
// operation to the one that can read the master database at hand. The
// 1030 build handles the older master layout, 1660 the newer; a master
// neither build can open is considered locked.
type Engine struct {
	cisis1030 *Tool
	cisis1660 *Tool
	codec     *idfile.Codec
	log       *logrus.Entry
}

// NewEngine builds an Engine from the two distribution paths. codec may
// be nil, in which case the default ISO-8859-1 codec is used.
func NewEngine(cisis1030Path, cisis1660Path string, codec *idfile.Codec) (*Engine, error) {
	t1030, err := NewTool(cisis1030Path)
	if err != nil {
		return nil, err
	}
	t1660, err := NewTool(cisis1660Path)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = idfile.NewCodec(nil)
	}
	return &Engine{
		cisis1030: t1030,
		cisis1660: t1660,
		codec:     codec,
		log:       logrus.WithField("component", "cisis"),
	}, nil
}

// NewEngineWithTools is NewEngine with caller-supplied tools, for tests.
func NewEngineWithTools(t1030, t1660 *Tool, codec *idfile.Codec) *Engine {
	if codec == nil {
		codec = idfile.NewCodec(nil)
	}
	return &Engine{
		cisis1030: t1030,
		cisis1660: t1660,
		codec:     codec,
		log:       logrus.WithField("component", "cisis"),
	}
}

// Codec returns the ID codec the engine parses and serializes with.
func (e *Engine) Codec() *idfile.Codec {
	return e.codec
}

// IsAvailable reports whether at least one CISIS build responds.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	return e.cisis1660.IsAvailable(ctx) || e.cisis1030.IsAvailable(ctx)
}

// tool picks the build that can read mst. A master that does not exist
// yet goes to the 1030 build, which both layouts can be created from.
func (e *Engine) tool(ctx context.Context, mst string) (*Tool, error) {
	if _, err := os.Stat(mst + ".mst"); err != nil {
		e.log.Debugf("could not find master file %s", mst)
		return e.cisis1030, nil
	}
	for _, t := range []*Tool{e.cisis1030, e.cisis1660} {
		if t.IsReadable(ctx, mst) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cisis: database %s is locked, cannot read", mst)
}

// Version reports which build can read mst: "1030" or "1660".
func (e *Engine) Version(ctx context.Context, mst string) (string, error) {
	if e.cisis1030.IsReadable(ctx, mst) {
		return "1030", nil
	}
	if e.cisis1660.IsReadable(ctx, mst) {
		return "1660", nil
	}
	return "", fmt.Errorf("cisis: could not determine database version of %s", mst)
}

// CrunchMF compacts mst into wmst with the build that can read mst.
func (e *Engine) CrunchMF(ctx context.Context, mst, wmst string) error {
	t, err := e.tool(ctx, mst)
	if err != nil {
		return err
	}
	return t.CrunchMF(ctx, mst, wmst)
}

// New creates an empty master database.
func (e *Engine) New(ctx context.Context, mst string) error {
	return e.cisis1030.New(ctx, mst)
}

// MasterToID exports mst as an ID file.
func (e *Engine) MasterToID(ctx context.Context, mst, idFile string) error {
	t, err := e.tool(ctx, mst)
	if err != nil {
		return err
	}
	return t.MasterToID(ctx, mst, idFile)
}

// MasterToISO exports mst as an ISO-2709 file.
func (e *Engine) MasterToISO(ctx context.Context, mst, isoFile string) error {
	t, err := e.tool(ctx, mst)
	if err != nil {
		return err
	}
	return t.MasterToISO(ctx, mst, isoFile)
}

// ISOToMaster creates mst from an ISO-2709 file.
func (e *Engine) ISOToMaster(ctx context.Context, isoFile, mst string) error {
	t, err := e.tool(ctx, mst)
	if err != nil {
		return err
	}
	return t.ISOToMaster(ctx, isoFile, mst)
}

// Search slices db by a boolean expression into the result master.
func (e *Engine) Search(ctx context.Context, db, expression, result string) error {
	t, err := e.tool(ctx, db)
	if err != nil {
		return err
	}
	_, err = t.Search(ctx, db, expression, result)
	return err
}

// UpdateIndexes regenerates db's inverted file from fst. A missing fst
// leaves the indexes alone.
func (e *Engine) UpdateIndexes(ctx context.Context, db, fst string) error {
	if fst == "" {
		return nil
	}
	t, err := e.tool(ctx, db)
	if err != nil {
		return err
	}
	return t.GenerateIndexes(ctx, db, fst, db)
}

// IDFileToDatabase creates db from an ID file and regenerates its
// indexes when an fst is given.
func (e *Engine) IDFileToDatabase(ctx context.Context, idFile, db, fst string) error {
	t, err := e.tool(ctx, db)
	if err != nil {
		return err
	}
	if err := t.IDToMaster(ctx, idFile, db); err != nil {
		return err
	}
	return e.UpdateIndexes(ctx, db, fst)
}

// AppendIDFileToDatabase appends the records of an ID file to db and
// regenerates its indexes when an fst is given.
func (e *Engine) AppendIDFileToDatabase(ctx context.Context, idFile, db, fst string) error {
	t, err := e.tool(ctx, db)
	if err != nil {
		return err
	}
	if err := t.AppendIDToMaster(ctx, idFile, db, false); err != nil {
		return err
	}
	return e.UpdateIndexes(ctx, db, fst)
}

// GetRecords exports db as an ID file and parses it into records. When
// an expression is given only the matching slice is exported. The
// export runs in a scratch directory that is removed afterwards.
func (e *Engine) GetRecords(ctx context.Context, db, expression string) ([]record.Record, error) {
	workDir, err := os.MkdirTemp("", "isiskit-export")
	if err != nil {
		return nil, fmt.Errorf("cisis: create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	database := db
	if expression != "" {
		// Slice into a scratch master named uniquely so concurrent
		// searches cannot collide.
		database = filepath.Join(workDir, ksuid.New().String())
		if err := e.Search(ctx, db, expression, database); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(database + ".mst"); err != nil {
		return []record.Record{}, nil
	}

	idFile := filepath.Join(workDir, ksuid.New().String()+".id")
	if err := e.MasterToID(ctx, database, idFile); err != nil {
		return nil, err
	}
	return e.codec.ReadFile(idFile)
}

// CreateIDFile serializes records to an ID file at path.
func (e *Engine) CreateIDFile(path string, records []record.Record) error {
	return e.codec.WriteFile(path, records)
}
