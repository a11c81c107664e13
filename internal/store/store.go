package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultFileName is the data file used when no path is configured.
const DefaultFileName = "timetable_data.json"

// Store reads and writes the Document at a single path.
// It assumes one process is the only writer.
type Store struct {
	path string
	log  *zap.Logger
}

// ParseError reports a data file that could not be decoded. Load still
// returns a fresh document alongside it; the original bytes are kept at
// BackupPath when that copy succeeded.
type ParseError struct {
	Path       string
	BackupPath string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("data file %s is unreadable: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func New(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file yields NewDocument(). A file that
// does not parse also yields NewDocument(), together with a *ParseError the
// caller may show as a warning.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("no data file, starting with defaults", zap.String("path", s.path))
		return NewDocument(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	doc, stray, err := decode(data)
	if err != nil {
		perr := &ParseError{Path: s.path, Err: err}
		backup := s.path + ".corrupt"
		if werr := os.WriteFile(backup, data, 0o644); werr != nil {
			s.log.Error("back up unreadable data file", zap.String("backup", backup), zap.Error(werr))
		} else {
			perr.BackupPath = backup
		}
		s.log.Warn("data file unreadable, starting with defaults",
			zap.String("path", s.path),
			zap.String("backup", perr.BackupPath),
			zap.Error(err),
		)
		return NewDocument(), perr
	}

	if len(stray) > 0 {
		s.log.Warn("data file has keys outside the grid",
			zap.String("path", s.path),
			zap.Strings("keys", stray),
		)
	}

	s.log.Debug("loaded document",
		zap.String("path", s.path),
		zap.String("current", doc.CurrentSemester),
		zap.Int("semesters", len(doc.Semesters)),
	)
	return doc, nil
}

// Save writes the whole document. The bytes go to a temp file in the same
// directory which is then renamed over the target.
func (s *Store) Save(doc *Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode document")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create data directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "replace %s", s.path)
	}

	s.log.Debug("saved document", zap.String("path", s.path), zap.Int("bytes", buf.Len()))
	return nil
}
