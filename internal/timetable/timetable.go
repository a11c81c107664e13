package timetable

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Days are the weekday column labels, Monday through Friday.
var Days = []string{"月", "火", "水", "木", "金"}

// Periods are the row labels of the grid.
var Periods = []int{1, 2, 3, 4, 5, 6}

var ErrInvalidKey = errors.New("invalid slot key")

// Key identifies one cell of the grid.
type Key struct {
	Day    string
	Period int
}

func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.Day, k.Period)
}

// Valid reports whether the key lies inside the day×period grid.
func (k Key) Valid() bool {
	return dayIndex(k.Day) >= 0 && k.Period >= Periods[0] && k.Period <= Periods[len(Periods)-1]
}

// ParseKey parses the persisted "<day>-<period>" form, e.g. "月-1".
func ParseKey(s string) (Key, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	period, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	k := Key{Day: s[:i], Period: period}
	if !k.Valid() {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	return k, nil
}

// Grid returns every key in row-major order: period 1 Mon..Fri, period 2, ...
func Grid() []Key {
	keys := make([]Key, 0, len(Days)*len(Periods))
	for _, p := range Periods {
		for _, d := range Days {
			keys = append(keys, Key{Day: d, Period: p})
		}
	}
	return keys
}

func dayIndex(day string) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return -1
}

// Slot is the class record stored in one cell.
type Slot struct {
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	Classroom string `json:"classroom"`
	NotePath  string `json:"note_path"`
}

// Empty reports whether every field is blank. Empty slots are never stored.
func (s Slot) Empty() bool {
	return s.Subject == "" && s.Teacher == "" && s.Classroom == "" && s.NotePath == ""
}

// NoteAvailable reports whether the linked note file exists on disk.
func (s Slot) NoteAvailable() bool {
	if s.NotePath == "" {
		return false
	}
	_, err := os.Stat(s.NotePath)
	return err == nil
}

// Timetable maps persisted key strings to slots for one semester.
type Timetable map[string]Slot

func New() Timetable {
	return make(Timetable)
}

func (t Timetable) Get(k Key) (Slot, bool) {
	s, ok := t[k.String()]
	return s, ok
}

// Set stores s under k, or removes k when s is empty.
func (t Timetable) Set(k Key, s Slot) {
	if s.Empty() {
		delete(t, k.String())
		return
	}
	t[k.String()] = s
}

func (t Timetable) Delete(k Key) {
	delete(t, k.String())
}

// Display renders a cell as subject, teacher and classroom on three lines.
// Blank fields keep their line so cells stay aligned.
func (t Timetable) Display(k Key) string {
	s, ok := t.Get(k)
	if !ok {
		return ""
	}
	return s.Subject + "\n" + s.Teacher + "\n" + s.Classroom
}

// CountByDay returns how many grid cells hold a class, indexed like Days.
// Keys outside the grid are ignored.
func (t Timetable) CountByDay() []int {
	counts := make([]int, len(Days))
	for _, k := range Grid() {
		if _, ok := t.Get(k); ok {
			counts[dayIndex(k.Day)]++
		}
	}
	return counts
}
