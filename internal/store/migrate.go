package store

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sadopc/classcal/internal/timetable"
)

// shape is the layout a data file was written in.
type shape int

const (
	// shapeSemesters is the current layout with a "semesters" map.
	shapeSemesters shape = iota
	// shapeFlat is the legacy layout: slot key -> slot at the top level.
	shapeFlat
)

func detectShape(top map[string]json.RawMessage) shape {
	if _, ok := top["semesters"]; ok {
		return shapeSemesters
	}
	return shapeFlat
}

// decode parses either layout and normalizes it into a Document. It also
// returns the keys that lie outside the grid.
func decode(data []byte) (*Document, []string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, errors.Wrap(err, "parse document")
	}
	if top == nil {
		return nil, nil, errors.New("parse document: null document")
	}

	var doc *Document
	switch detectShape(top) {
	case shapeSemesters:
		doc = &Document{}
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, nil, errors.Wrap(err, "parse semesters document")
		}
	case shapeFlat:
		flat := timetable.New()
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, nil, errors.Wrap(err, "parse legacy timetable")
		}
		doc = &Document{
			CurrentSemester: DefaultSemester,
			Semesters:       map[string]timetable.Timetable{DefaultSemester: flat},
		}
	}

	stray := doc.normalize()
	return doc, stray, nil
}
