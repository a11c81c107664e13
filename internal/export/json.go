package export

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/sadopc/classcal/internal/timetable"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Semester   string     `json:"semester"`
	Count      int        `json:"count"`
	Slots      []jsonSlot `json:"slots"`
}

type jsonSlot struct {
	Key       string `json:"key"`
	Day       string `json:"day"`
	Period    int    `json:"period"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher,omitempty"`
	Classroom string `json:"classroom,omitempty"`
	NotePath  string `json:"note_path,omitempty"`
}

func ToJSON(semester string, tt timetable.Timetable, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Semester:   semester,
		Slots:      []jsonSlot{},
	}

	for _, k := range timetable.Grid() {
		s, ok := tt.Get(k)
		if !ok {
			continue
		}
		export.Slots = append(export.Slots, jsonSlot{
			Key:       k.String(),
			Day:       k.Day,
			Period:    k.Period,
			Subject:   s.Subject,
			Teacher:   s.Teacher,
			Classroom: s.Classroom,
			NotePath:  s.NotePath,
		})
	}
	export.Count = len(export.Slots)

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal json")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write json file")
	}
	return nil
}
