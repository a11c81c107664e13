package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/classcal/internal/semester"
)

type semestersModel struct {
	reg    *semester.Registry
	width  int
	height int

	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "add", "reset", "remove"
	target     string

	// Form field pointers (survive value copies)
	formName    *string
	formConfirm *bool
}

func newSemestersModel(reg *semester.Registry) semestersModel {
	name := ""
	confirm := false
	return semestersModel{
		reg:         reg,
		formName:    &name,
		formConfirm: &confirm,
	}
}

func (s *semestersModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

// focusCurrent moves the cursor onto the current semester.
func (s semestersModel) focusCurrent() semestersModel {
	for i, name := range s.reg.Names() {
		if name == s.reg.Current() {
			s.cursor = i
		}
	}
	return s
}

func (s semestersModel) selected() string {
	names := s.reg.Names()
	if s.cursor >= len(names) {
		return ""
	}
	return names[s.cursor]
}

func (s semestersModel) update(msg tea.Msg) (semestersModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < s.reg.Len()-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Enter):
			return s.switchSelected()
		case key.Matches(msg, keys.New):
			return s.showAddForm()
		case key.Matches(msg, keys.Reset):
			return s.showConfirmForm("reset")
		case key.Matches(msg, keys.Delete):
			if s.reg.Len() <= 1 {
				return s, errorCmd(semester.ErrLastSemester)
			}
			return s.showConfirmForm("remove")
		}
	}
	return s, nil
}

func (s semestersModel) switchSelected() (semestersModel, tea.Cmd) {
	name := s.selected()
	if name == "" || name == s.reg.Current() {
		return s, nil
	}
	if err := s.reg.SwitchTo(name); err != nil {
		return s, errorCmd(err)
	}
	return s, statusCmd("Switched to "+name, false)
}

func (s semestersModel) showAddForm() (semestersModel, tea.Cmd) {
	*s.formName = ""
	s.formType = "add"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Semester name").Value(s.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s semestersModel) showConfirmForm(formType string) (semestersModel, tea.Cmd) {
	s.target = s.selected()
	if s.target == "" {
		return s, nil
	}
	*s.formConfirm = false
	s.formType = formType

	title := fmt.Sprintf("Reset the timetable of %q? This cannot be undone.", s.target)
	affirm := "Reset"
	if formType == "remove" {
		title = fmt.Sprintf("Delete semester %q? This cannot be undone.", s.target)
		affirm = "Delete"
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Affirmative(affirm).Negative("Cancel").Value(s.formConfirm),
		),
	).WithShowHelp(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s semestersModel) updateForm(msg tea.Msg) (semestersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		return s.commitForm()
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}

	return s, cmd
}

func (s semestersModel) commitForm() (semestersModel, tea.Cmd) {
	s.formActive = false
	s.form = nil

	switch s.formType {
	case "add":
		name := strings.TrimSpace(*s.formName)
		if err := s.reg.Add(name); err != nil {
			return s, errorCmd(err)
		}
		return s, statusCmd("Added "+name, false)

	case "reset":
		if !*s.formConfirm {
			return s, nil
		}
		if err := s.reg.Reset(s.target); err != nil {
			return s, errorCmd(err)
		}
		return s, statusCmd("Reset "+s.target, false)

	case "remove":
		if !*s.formConfirm {
			return s, nil
		}
		if err := s.reg.Remove(s.target); err != nil {
			return s, errorCmd(err)
		}
		if s.cursor >= s.reg.Len() {
			s.cursor = max(0, s.reg.Len()-1)
		}
		return s, statusCmd("Deleted "+s.target, false)
	}
	return s, nil
}

func (s semestersModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("New Semester")
		if s.formType != "add" {
			title = titleStyle.Render("Confirm")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{titleStyle.Render("Semesters"), ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-28s %8s", "", "Name", "Classes")))

	for i, name := range s.reg.Names() {
		tt, _ := s.reg.Semester(name)
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		marker := " "
		if name == s.reg.Current() {
			marker = successStyle.Render("●")
		}
		rows = append(rows, style.Render(cursor)+marker+style.Render(fmt.Sprintf(" %-28s %8d", name, len(tt))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: switch  n: new  r: reset  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
