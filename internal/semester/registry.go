package semester

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sadopc/classcal/internal/store"
	"github.com/sadopc/classcal/internal/timetable"
)

var (
	ErrEmptyName       = errors.New("semester name is empty")
	ErrDuplicateName   = errors.New("semester already exists")
	ErrUnknownSemester = errors.New("unknown semester")
	ErrLastSemester    = errors.New("cannot delete the last semester")
)

// Saver persists the whole document.
type Saver interface {
	Save(doc *store.Document) error
}

// Registry is the application state: every semester, the current pointer
// and the settings. All mutations go through it and are saved on commit.
type Registry struct {
	doc   *store.Document
	saver Saver
	log   *zap.Logger
}

func NewRegistry(doc *store.Document, saver Saver, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{doc: doc, saver: saver, log: log}
}

func (r *Registry) Current() string {
	return r.doc.CurrentSemester
}

// Names returns all semester names, sorted.
func (r *Registry) Names() []string {
	return r.doc.SemesterNames()
}

func (r *Registry) Len() int {
	return len(r.doc.Semesters)
}

// Timetable returns the live timetable of the current semester.
func (r *Registry) Timetable() timetable.Timetable {
	return r.doc.Semesters[r.doc.CurrentSemester]
}

// Semester returns the timetable stored under name.
func (r *Registry) Semester(name string) (timetable.Timetable, error) {
	tt, ok := r.doc.Semesters[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSemester, "%q", name)
	}
	return tt, nil
}

func (r *Registry) Save() error {
	if err := r.saver.Save(r.doc); err != nil {
		r.log.Error("save document", zap.Error(err))
		return errors.Wrap(err, "save")
	}
	return nil
}

// Add creates an empty semester. It does not change the current one.
func (r *Registry) Add(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if _, ok := r.doc.Semesters[name]; ok {
		return errors.Wrapf(ErrDuplicateName, "%q", name)
	}
	r.doc.Semesters[name] = timetable.New()
	r.log.Info("semester added", zap.String("name", name))
	return r.Save()
}

// SwitchTo makes name the current semester. The document is saved before
// and after the pointer moves.
func (r *Registry) SwitchTo(name string) error {
	if _, ok := r.doc.Semesters[name]; !ok {
		return errors.Wrapf(ErrUnknownSemester, "%q", name)
	}
	if name == r.doc.CurrentSemester {
		return nil
	}
	if err := r.Save(); err != nil {
		return err
	}
	prev := r.doc.CurrentSemester
	r.doc.CurrentSemester = name
	r.log.Info("semester switched", zap.String("from", prev), zap.String("to", name))
	return r.Save()
}

// Reset empties the named semester. Callers confirm with the user first.
func (r *Registry) Reset(name string) error {
	if _, ok := r.doc.Semesters[name]; !ok {
		return errors.Wrapf(ErrUnknownSemester, "%q", name)
	}
	r.doc.Semesters[name] = timetable.New()
	r.log.Info("semester reset", zap.String("name", name))
	return r.Save()
}

// Remove deletes the named semester. The last semester cannot be removed.
// When the current semester is removed, the first remaining name in sorted
// order becomes current.
func (r *Registry) Remove(name string) error {
	if len(r.doc.Semesters) <= 1 {
		return ErrLastSemester
	}
	if _, ok := r.doc.Semesters[name]; !ok {
		return errors.Wrapf(ErrUnknownSemester, "%q", name)
	}
	delete(r.doc.Semesters, name)
	if r.doc.CurrentSemester == name {
		r.doc.CurrentSemester = r.doc.SemesterNames()[0]
	}
	r.log.Info("semester removed", zap.String("name", name), zap.String("current", r.doc.CurrentSemester))
	return r.Save()
}
