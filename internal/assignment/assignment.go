package assignment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrTemplateMissing  = errors.New("template file is not set or does not exist")
	ErrMissingStudentID = errors.New("student ID is not set")
	ErrMissingSubject   = errors.New("no subject in this slot")
)

// CopyError wraps an I/O failure while copying the template.
type CopyError struct {
	Src string
	Dst string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s to %s: %v", e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// Request describes one assignment file to create. Sequence is free-form
// ("3", "最終", ...). An empty Destination means the suggested file name
// inside the generator's output directory; one without an extension gets
// ".docx".
type Request struct {
	TemplatePath string
	StudentID    string
	Subject      string
	Sequence     string
	Destination  string
}

type Result struct {
	Path  string
	Bytes int64
}

// DocxExt is added to a destination that has no extension.
const DocxExt = ".docx"

// SuggestedFileName returns e.g. "Math_第3回_S1.docx".
func SuggestedFileName(subject, sequence, studentID string) string {
	return subject + "_第" + sequence + "回_" + studentID + DocxExt
}

type Generator struct {
	outputDir string
	log       *zap.Logger
}

func NewGenerator(outputDir string, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{outputDir: outputDir, log: log}
}

// DefaultDestination is where Generate writes when the request names no path.
func (g *Generator) DefaultDestination(subject, sequence, studentID string) string {
	return filepath.Join(g.outputDir, SuggestedFileName(subject, sequence, studentID))
}

// Problems lists the unmet settings that keep any assignment from being
// generated. It is empty when the template exists and a student ID is set.
func (g *Generator) Problems(templatePath, studentID string) []error {
	var problems []error
	if !templateExists(templatePath) {
		problems = append(problems, ErrTemplateMissing)
	}
	if studentID == "" {
		problems = append(problems, ErrMissingStudentID)
	}
	return problems
}

// Generate copies the template to the destination, replacing any existing
// file. Nothing is written when a precondition fails.
func (g *Generator) Generate(req Request) (Result, error) {
	if !templateExists(req.TemplatePath) {
		return Result{}, errors.Wrapf(ErrTemplateMissing, "%q", req.TemplatePath)
	}
	if req.StudentID == "" {
		return Result{}, ErrMissingStudentID
	}
	if req.Subject == "" {
		return Result{}, ErrMissingSubject
	}

	dst := req.Destination
	if dst == "" {
		dst = g.DefaultDestination(req.Subject, req.Sequence, req.StudentID)
	}
	if filepath.Ext(dst) == "" {
		dst += DocxExt
	}

	n, err := copyFile(req.TemplatePath, dst)
	if err != nil {
		cerr := &CopyError{Src: req.TemplatePath, Dst: dst, Err: err}
		g.log.Error("generate assignment", zap.Error(cerr))
		return Result{}, cerr
	}

	g.log.Info("assignment generated",
		zap.String("subject", req.Subject),
		zap.String("sequence", req.Sequence),
		zap.String("path", dst),
		zap.Int64("bytes", n),
	)
	return Result{Path: dst, Bytes: n}, nil
}

func templateExists(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// copyFile writes src into a temp file beside dst, then renames it over dst.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	return n, nil
}
