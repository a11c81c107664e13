package store

import (
	"sort"

	"github.com/sadopc/classcal/internal/timetable"
)

// DefaultSemester names the semester created on first run and the one a
// legacy flat file is migrated into.
const DefaultSemester = "Default"

// Document is the entire durable state, persisted as one JSON object.
type Document struct {
	CurrentSemester  string                         `json:"current_semester"`
	Semesters        map[string]timetable.Timetable `json:"semesters"`
	WordTemplatePath string                         `json:"word_template_path"`
	StudentID        string                         `json:"student_id"`
}

// NewDocument returns the first-run document: one empty Default semester.
func NewDocument() *Document {
	return &Document{
		CurrentSemester: DefaultSemester,
		Semesters: map[string]timetable.Timetable{
			DefaultSemester: timetable.New(),
		},
	}
}

// SemesterNames returns the semester names in sorted order.
func (d *Document) SemesterNames() []string {
	names := make([]string, 0, len(d.Semesters))
	for name := range d.Semesters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalize repairs a decoded document: at least one semester, no nil
// timetables, no empty slots, and a current pointer naming a semester.
// Keys that do not parse as grid cells are kept and returned as
// "<semester>/<key>".
func (d *Document) normalize() (stray []string) {
	if d.Semesters == nil {
		d.Semesters = make(map[string]timetable.Timetable)
	}
	for _, name := range d.SemesterNames() {
		tt := d.Semesters[name]
		if tt == nil {
			d.Semesters[name] = timetable.New()
			continue
		}
		for k, slot := range tt {
			if slot.Empty() {
				delete(tt, k)
				continue
			}
			if _, err := timetable.ParseKey(k); err != nil {
				stray = append(stray, name+"/"+k)
			}
		}
	}
	sort.Strings(stray)
	if d.CurrentSemester == "" {
		d.CurrentSemester = DefaultSemester
	}
	if _, ok := d.Semesters[d.CurrentSemester]; !ok {
		d.Semesters[d.CurrentSemester] = timetable.New()
	}
	return stray
}
