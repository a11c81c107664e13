package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/sadopc/classcal/internal/assignment"
	"github.com/sadopc/classcal/internal/semester"
	"github.com/sadopc/classcal/internal/timetable"
)

const (
	gridLabelWidth = 5
	minCellWidth   = 8
)

type gridModel struct {
	reg    *semester.Registry
	gen    *assignment.Generator
	width  int
	height int

	row int // index into timetable.Periods
	col int // index into timetable.Days

	formActive bool
	form       *huh.Form
	formType   string // "edit", "delete", "assignment"
	editing    timetable.Key

	// Form field pointers (survive value copies)
	formSubject   *string
	formTeacher   *string
	formClassroom *string
	formNote      *string
	formSequence  *string
	formDest      *string
	formConfirm   *bool
}

func newGridModel(reg *semester.Registry, gen *assignment.Generator) gridModel {
	subject, teacher, classroom, note := "", "", "", ""
	seq, dest := "", ""
	confirm := false
	return gridModel{
		reg:           reg,
		gen:           gen,
		formSubject:   &subject,
		formTeacher:   &teacher,
		formClassroom: &classroom,
		formNote:      &note,
		formSequence:  &seq,
		formDest:      &dest,
		formConfirm:   &confirm,
	}
}

func (g *gridModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

func (g gridModel) cursorKey() timetable.Key {
	return timetable.Key{Day: timetable.Days[g.col], Period: timetable.Periods[g.row]}
}

func (g gridModel) update(msg tea.Msg) (gridModel, tea.Cmd) {
	if g.formActive && g.form != nil {
		return g.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if g.row > 0 {
				g.row--
			}
		case key.Matches(msg, keys.Down):
			if g.row < len(timetable.Periods)-1 {
				g.row++
			}
		case key.Matches(msg, keys.Left):
			if g.col > 0 {
				g.col--
			}
		case key.Matches(msg, keys.Right):
			if g.col < len(timetable.Days)-1 {
				g.col++
			}
		case key.Matches(msg, keys.Enter):
			return g.showEditForm()
		case key.Matches(msg, keys.Delete):
			if _, ok := g.reg.Timetable().Get(g.cursorKey()); ok {
				return g.showDeleteForm()
			}
		case key.Matches(msg, keys.Generate):
			return g.showAssignmentForm()
		}
	}
	return g, nil
}

func (g gridModel) showEditForm() (gridModel, tea.Cmd) {
	g.editing = g.cursorKey()
	slot, _ := g.reg.Timetable().Get(g.editing)
	*g.formSubject = slot.Subject
	*g.formTeacher = slot.Teacher
	*g.formClassroom = slot.Classroom
	*g.formNote = slot.NotePath
	g.formType = "edit"

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject").Value(g.formSubject),
			huh.NewInput().Title("Teacher").Value(g.formTeacher),
			huh.NewInput().Title("Classroom").Value(g.formClassroom),
			huh.NewInput().Title("Note file").
				Description("Path to a note file (.md). Leave every field blank to clear the cell.").
				Value(g.formNote),
		),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g gridModel) showDeleteForm() (gridModel, tea.Cmd) {
	g.editing = g.cursorKey()
	*g.formConfirm = false
	g.formType = "delete"

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete the class in %s?", g.editing)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(g.formConfirm),
		),
	).WithShowHelp(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g gridModel) showAssignmentForm() (gridModel, tea.Cmd) {
	k := g.cursorKey()
	slot, _ := g.reg.Timetable().Get(k)
	if slot.Subject == "" {
		return g, errorCmd(assignment.ErrMissingSubject)
	}
	if problems := g.gen.Problems(g.reg.TemplatePath(), g.reg.StudentID()); len(problems) > 0 {
		return g, statusCmd("Cannot create assignment: "+joinErrors(problems), true)
	}

	g.editing = k
	*g.formSequence = ""
	*g.formDest = ""
	g.formType = "assignment"

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Assignment number").
				Description("e.g. 1, 2, 最終").
				Value(g.formSequence).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("required")
					}
					return nil
				}),
			huh.NewInput().Title("Save as").
				Description("Leave blank for "+g.gen.DefaultDestination(slot.Subject, "N", g.reg.StudentID())).
				Value(g.formDest),
		).Title(slot.Subject),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g gridModel) updateForm(msg tea.Msg) (gridModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			g.formActive = false
			g.form = nil
			return g, nil
		}
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	switch g.form.State {
	case huh.StateCompleted:
		return g.commitForm()
	case huh.StateAborted:
		g.formActive = false
		g.form = nil
		return g, nil
	}

	return g, cmd
}

// commitForm applies the finished form to the registry.
func (g gridModel) commitForm() (gridModel, tea.Cmd) {
	g.formActive = false
	g.form = nil

	switch g.formType {
	case "edit":
		slot := timetable.Slot{
			Subject:   *g.formSubject,
			Teacher:   *g.formTeacher,
			Classroom: *g.formClassroom,
			NotePath:  *g.formNote,
		}
		if err := g.reg.SetSlot(g.editing, slot); err != nil {
			return g, errorCmd(err)
		}
		if slot.Empty() {
			return g, statusCmd("Cleared "+g.editing.String(), false)
		}
		return g, statusCmd("Saved "+g.editing.String(), false)

	case "delete":
		if !*g.formConfirm {
			return g, nil
		}
		if err := g.reg.DeleteSlot(g.editing); err != nil {
			return g, errorCmd(err)
		}
		return g, statusCmd("Deleted "+g.editing.String(), false)

	case "assignment":
		slot, _ := g.reg.Timetable().Get(g.editing)
		res, err := g.gen.Generate(assignment.Request{
			TemplatePath: g.reg.TemplatePath(),
			StudentID:    g.reg.StudentID(),
			Subject:      slot.Subject,
			Sequence:     strings.TrimSpace(*g.formSequence),
			Destination:  strings.TrimSpace(*g.formDest),
		})
		if err != nil {
			return g, errorCmd(err)
		}
		return g, statusCmd(fmt.Sprintf("Created %s (%s)", res.Path, humanize.Bytes(uint64(res.Bytes))), false)
	}
	return g, nil
}

func (g gridModel) cellWidth() int {
	// panel border+padding (6) and one border pair per cell (2)
	w := (g.width-4-6-gridLabelWidth)/len(timetable.Days) - 2
	if w < minCellWidth {
		w = minCellWidth
	}
	return w
}

func (g gridModel) view() string {
	w := g.width - 4

	if g.formActive && g.form != nil {
		title := titleStyle.Render("Edit " + g.editing.String())
		switch g.formType {
		case "delete":
			title = titleStyle.Render("Delete Class")
		case "assignment":
			title = titleStyle.Render("New Assignment")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", g.form.View()),
		)
	}

	title := titleStyle.Render(g.reg.Current())
	rows := []string{title, "", g.renderGrid(), "", g.renderDetail()}
	rows = append(rows, "", mutedStyle.Render("  enter: edit  d: delete  g: create assignment  arrows: move"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (g gridModel) renderGrid() string {
	cw := g.cellWidth()
	tt := g.reg.Timetable()

	header := []string{lipgloss.NewStyle().Width(gridLabelWidth).Render("")}
	for _, d := range timetable.Days {
		header = append(header, gridHeaderStyle.Width(cw+2).Render(d))
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	for r, p := range timetable.Periods {
		label := gridHeaderStyle.Width(gridLabelWidth).Height(5).
			AlignVertical(lipgloss.Center).
			Render(strconv.Itoa(p) + "限")
		cells := []string{label}
		for c, d := range timetable.Days {
			style := cellStyle
			if r == g.row && c == g.col {
				style = selectedCellStyle
			}
			content := renderCell(tt.Display(timetable.Key{Day: d, Period: p}), cw)
			cells = append(cells, style.Width(cw).Height(3).Render(content))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderCell truncates each of the three display lines to width so the
// cell never wraps.
func renderCell(display string, width int) string {
	lines := strings.Split(display, "\n")
	for len(lines) < 3 {
		lines = append(lines, "")
	}
	for i, l := range lines[:3] {
		lines[i] = ansi.Truncate(l, width, "…")
	}
	return strings.Join(lines[:3], "\n")
}

func (g gridModel) renderDetail() string {
	k := g.cursorKey()
	slot, ok := g.reg.Timetable().Get(k)
	if !ok {
		return mutedStyle.Render(fmt.Sprintf("  %s: empty", k))
	}
	note := mutedStyle.Render("no note")
	if slot.NotePath != "" {
		if slot.NoteAvailable() {
			note = successStyle.Render("note: " + slot.NotePath)
		} else {
			note = warningStyle.Render("note missing: " + slot.NotePath)
		}
	}
	return fmt.Sprintf("  %s %s  %s", highlightStyle.Render(k.String()), slot.Subject, note)
}
