package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/sadopc/classcal/internal/assignment"
	"github.com/sadopc/classcal/internal/semester"
)

type settingsModel struct {
	reg    *semester.Registry
	gen    *assignment.Generator
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	templatePath *string
	studentID    *string
}

func newSettingsModel(reg *semester.Registry, gen *assignment.Generator) settingsModel {
	tp, sid := "", ""
	return settingsModel{
		reg:          reg,
		gen:          gen,
		templatePath: &tp,
		studentID:    &sid,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func validateTemplatePath(p string) error {
	p = strings.TrimSpace(p)
	if p == "" {
		return nil
	}
	fi, err := os.Stat(p)
	if err != nil {
		return errors.New("file not found")
	}
	if !fi.Mode().IsRegular() {
		return errors.New("not a regular file")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.templatePath = s.reg.TemplatePath()
	*s.studentID = s.reg.StudentID()

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Word template (.docx)").
				Description("Copied for every new assignment").
				Value(s.templatePath).
				Validate(validateTemplatePath),
			huh.NewInput().Title("Student ID").Value(s.studentID),
		).Title("Assignments"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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
		return s.saveSettings()
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}

	return s, cmd
}

// saveSettings stores changed values. A blank student ID keeps the old one.
func (s settingsModel) saveSettings() (settingsModel, tea.Cmd) {
	s.formActive = false
	s.form = nil

	var saved []string
	if tp := strings.TrimSpace(*s.templatePath); tp != s.reg.TemplatePath() {
		if err := s.reg.SetTemplatePath(tp); err != nil {
			return s, errorCmd(err)
		}
		saved = append(saved, "template")
	}
	if id := strings.TrimSpace(*s.studentID); id != "" && id != s.reg.StudentID() {
		if err := s.reg.SetStudentID(id); err != nil {
			return s, errorCmd(err)
		}
		saved = append(saved, "student ID")
	}
	if len(saved) == 0 {
		return s, nil
	}
	return s, statusCmd("Saved "+strings.Join(saved, " and "), false)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	template := s.reg.TemplatePath()
	templateValue := warningStyle.Render("not set")
	if template != "" {
		if validateTemplatePath(template) == nil {
			templateValue = highlightStyle.Render(template)
		} else {
			templateValue = errorStyle.Render(template + " (missing)")
		}
	}
	studentValue := warningStyle.Render("not set")
	if id := s.reg.StudentID(); id != "" {
		studentValue = highlightStyle.Render(id)
	}

	rows := []string{title, ""}
	rows = append(rows, settingRow("Word template", templateValue))
	rows = append(rows, settingRow("Student ID", studentValue))
	rows = append(rows, "")

	if problems := s.gen.Problems(template, s.reg.StudentID()); len(problems) > 0 {
		rows = append(rows, warningStyle.Render("  Assignments unavailable:"))
		for _, p := range problems {
			rows = append(rows, mutedStyle.Render("   · "+p.Error()))
		}
	} else {
		rows = append(rows, successStyle.Render("  Assignments ready"))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), value)
}
