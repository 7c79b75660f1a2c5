// Package cisis drives the CISIS command-line utilities (mx, id2i, i2id,
// crunchmf) that create, append, search and index ISIS master databases.
// A master database is a .mst/.xrf file pair; the utilities exchange its
// contents with the rest of the system as ID-format streams.
package cisis

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner executes one CISIS utility and returns its stdout. Implemented
// by execRunner; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct {
	log *logrus.Entry
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.log.WithField("args", args).Debugf("running %s", name)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stderr.Len() > 0 {
		r.log.Debugf("%s stderr: %s", filepath.Base(name), strings.TrimSpace(stderr.String()))
	}
	if err != nil {
		return stdout.String(), fmt.Errorf("cisis: %s %s: %w", filepath.Base(name), strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// Tool wraps one CISIS binary distribution. Concurrent calls against the
// same master database must be serialized by the caller; the utilities
// take no locks of their own.
type Tool struct {
	path string
	run  Runner
	log  *logrus.Entry
}

// NewTool returns a Tool for the distribution installed at path. The
// path must exist.
func NewTool(path string) (*Tool, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cisis: distribution path %s: %w", path, err)
	}
	log := logrus.WithField("component", "cisis")
	return &Tool{path: path, run: &execRunner{log: log}, log: log}, nil
}

// NewToolWithRunner is NewTool with a caller-supplied runner, for tests.
func NewToolWithRunner(path string, run Runner) *Tool {
	return &Tool{path: path, run: run, log: logrus.WithField("component", "cisis")}
}

func (t *Tool) command(name string) string {
	return filepath.Join(t.path, name)
}

// IsAvailable probes the distribution by asking mx to identify itself.
func (t *Tool) IsAvailable(ctx context.Context) bool {
	out, err := t.run.Run(ctx, t.command("mx"), "what")
	return err == nil && strings.HasPrefix(strings.TrimSpace(out), "CISIS")
}

// CrunchMF compacts a master database into a new one.
func (t *Tool) CrunchMF(ctx context.Context, mst, wmst string) error {
	_, err := t.run.Run(ctx, t.command("crunchmf"), mst, wmst)
	return err
}

// IDToMaster creates a master database from an ID file.
func (t *Tool) IDToMaster(ctx context.Context, idFile, mst string) error {
	_, err := t.run.Run(ctx, t.command("id2i"), idFile, "create="+mst)
	return err
}

// Append appends the records of master src onto master dest.
func (t *Tool) Append(ctx context.Context, src, dest string) error {
	_, err := t.run.Run(ctx, t.command("mx"), src, "append="+dest, "now", "-all")
	return err
}

// Create copies master src into a freshly created master dest.
func (t *Tool) Create(ctx context.Context, src, dest string) error {
	_, err := t.run.Run(ctx, t.command("mx"), src, "create="+dest, "now", "-all")
	return err
}

// AppendIDToMaster loads an ID file into mst. With reset the master is
// recreated from the ID file alone; otherwise the records are loaded
// into a scratch master which is appended and then removed.
func (t *Tool) AppendIDToMaster(ctx context.Context, idFile, mst string, reset bool) error {
	if reset {
		return t.IDToMaster(ctx, idFile, mst)
	}
	scratch := strings.TrimSuffix(idFile, ".id")
	if err := t.IDToMaster(ctx, idFile, scratch); err != nil {
		return err
	}
	if err := t.Append(ctx, scratch, mst); err != nil {
		return err
	}
	return t.Delete(scratch)
}

// Delete removes the master file pair, ignoring the halves that do not
// exist.
func (t *Tool) Delete(db string) error {
	for _, ext := range []string{".mst", ".xrf"} {
		path := db + ext
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("cisis: remove %s: %w", path, err)
		}
		t.log.Debugf("removed file %s", filepath.Base(path))
	}
	return nil
}

// MasterToID exports a master database to an ID file. i2id writes the
// stream to stdout; it is captured and written verbatim.
func (t *Tool) MasterToID(ctx context.Context, mst, idFile string) error {
	out, err := t.run.Run(ctx, t.command("i2id"), mst)
	if err != nil {
		return err
	}
	if err := os.WriteFile(idFile, []byte(out), 0o644); err != nil {
		return fmt.Errorf("cisis: write %s: %w", idFile, err)
	}
	return nil
}

// MasterToISO exports a master database to an ISO-2709 file.
func (t *Tool) MasterToISO(ctx context.Context, mst, isoFile string) error {
	_, err := t.run.Run(ctx, t.command("mx"), mst, "iso="+isoFile, "now", "-all")
	return err
}

// ISOToMaster creates a master database from an ISO-2709 file.
func (t *Tool) ISOToMaster(ctx context.Context, isoFile, mst string) error {
	_, err := t.run.Run(ctx, t.command("mx"), "iso="+isoFile, "create="+mst, "now", "-all")
	return err
}

// New creates an empty master database.
func (t *Tool) New(ctx context.Context, mst string) error {
	_, err := t.run.Run(ctx, t.command("mx"), "null", "count=0", "create="+mst, "now", "-all")
	return err
}

// Search evaluates a boolean expression against mst and appends the hits
// to the result master, replacing any previous result files. It slices
// the database into a sub-database.
func (t *Tool) Search(ctx context.Context, mst, expression, result string) (string, error) {
	if err := t.Delete(result); err != nil {
		return "", err
	}
	return t.run.Run(ctx, t.command("mx"),
		"btell=0", mst, "bool="+expression, "lw=999", "append="+result, "now", "-all")
}

// GenerateIndexes builds the inverted file for mst from an FST field
// selection table.
func (t *Tool) GenerateIndexes(ctx context.Context, mst, fst, inverted string) error {
	_, err := t.run.Run(ctx, t.command("mx"), mst, "fst=@"+fst, "fullinv="+inverted)
	return err
}

// IsReadable reports whether this distribution can open the master.
// Incompatible layouts surface as a dbxopen complaint in mx's control
// output.
func (t *Tool) IsReadable(ctx context.Context, mst string) bool {
	if _, err := os.Stat(mst + ".mst"); err != nil {
		return false
	}
	out, err := t.run.Run(ctx, t.command("mx"), mst, "+control", "now")
	if err != nil {
		return false
	}
	return !strings.Contains(out, "dbxopen") || strings.Contains(out, "nxtmfn")
}
