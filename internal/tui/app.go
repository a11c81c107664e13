package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/classcal/internal/assignment"
	"github.com/sadopc/classcal/internal/export"
	"github.com/sadopc/classcal/internal/semester"
)

// App is the root Bubble Tea model. Every registry mutation happens inside
// Update, never in a tea.Cmd.
type App struct {
	reg       *semester.Registry
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	grid      gridModel
	semesters semestersModel
	stats     statsModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

// NewApp builds the UI. Exports go to exportDir, or the home directory
// when it is empty.
func NewApp(reg *semester.Registry, gen *assignment.Generator, exportDir string) App {
	h := help.New()
	h.ShowAll = false

	return App{
		reg:        reg,
		exportDir:  exportDir,
		activeView: viewTimetable,
		grid:       newGridModel(reg, gen),
		semesters:  newSemestersModel(reg),
		stats:      newStatsModel(reg),
		settings:   newSettingsModel(reg, gen),
		help:       h,
	}
}

// WithStatus sets the initial status line, e.g. a load warning.
func (a App) WithStatus(text string, isError bool) App {
	a.status = text
	a.statusError = isError
	return a
}

func (a App) Init() tea.Cmd {
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.grid.setSize(a.width, contentHeight)
		a.semesters.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimetable
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewSemesters
			a.semesters = a.semesters.focusCurrent()
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			if a.activeView == viewSemesters {
				a.semesters = a.semesters.focusCurrent()
			}
			return a, nil
		}

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimetable:
		a.grid, cmd = a.grid.update(msg)
	case viewSemesters:
		a.semesters, cmd = a.semesters.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimetable:
		return a.grid.formActive
	case viewSemesters:
		return a.semesters.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimetable:
		content = a.grid.view()
	case viewSemesters:
		content = a.semesters.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("classcal"),
		mutedStyle.Render(" - "+a.reg.Current()),
	)
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export " + a.reg.Current())
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the current semester synchronously and reports the
// outcome as a message.
func (a App) doExport(format int) tea.Cmd {
	dir := a.exportDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errorCmd(err)
		}
		dir = home
	}

	name := a.reg.Current()
	base := fmt.Sprintf("classcal-%s-%s", fileNameSafe(name), time.Now().Format("2006-01-02"))
	tt := a.reg.Timetable()

	var path string
	if format == 0 {
		path = filepath.Join(dir, base+".csv")
		if err := export.ToCSV(tt, path); err != nil {
			return statusCmd(fmt.Sprintf("CSV error: %v", err), true)
		}
	} else {
		path = filepath.Join(dir, base+".json")
		if err := export.ToJSON(name, tt, path); err != nil {
			return statusCmd(fmt.Sprintf("JSON error: %v", err), true)
		}
	}

	return func() tea.Msg {
		return exportDoneMsg{path: path}
	}
}
