package semester

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sadopc/classcal/internal/timetable"
)

// SetSlot writes s into the current semester, or clears the cell when every
// field of s is empty.
func (r *Registry) SetSlot(k timetable.Key, s timetable.Slot) error {
	if !k.Valid() {
		return errors.Wrapf(timetable.ErrInvalidKey, "%s", k)
	}
	r.Timetable().Set(k, s)
	r.log.Debug("slot saved", zap.Stringer("key", k), zap.Bool("cleared", s.Empty()))
	return r.Save()
}

// DeleteSlot clears the cell in the current semester.
func (r *Registry) DeleteSlot(k timetable.Key) error {
	if !k.Valid() {
		return errors.Wrapf(timetable.ErrInvalidKey, "%s", k)
	}
	r.Timetable().Delete(k)
	r.log.Debug("slot deleted", zap.Stringer("key", k))
	return r.Save()
}

func (r *Registry) TemplatePath() string {
	return r.doc.WordTemplatePath
}

func (r *Registry) StudentID() string {
	return r.doc.StudentID
}

func (r *Registry) SetTemplatePath(path string) error {
	r.doc.WordTemplatePath = path
	return r.Save()
}

func (r *Registry) SetStudentID(id string) error {
	r.doc.StudentID = id
	return r.Save()
}
