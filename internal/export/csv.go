package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sadopc/classcal/internal/timetable"
)

// ToCSV writes every stored slot of tt in grid order.
func ToCSV(tt timetable.Timetable, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Day", "Period", "Subject", "Teacher", "Classroom", "Note"}); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for _, k := range timetable.Grid() {
		s, ok := tt.Get(k)
		if !ok {
			continue
		}
		row := []string{
			k.Day,
			strconv.Itoa(k.Period),
			s.Subject,
			s.Teacher,
			s.Classroom,
			s.NotePath,
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "write csv row %s", k)
		}
	}

	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}
