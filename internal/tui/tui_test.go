package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/classcal/internal/assignment"
	"github.com/sadopc/classcal/internal/semester"
	"github.com/sadopc/classcal/internal/store"
	"github.com/sadopc/classcal/internal/timetable"
)

func newTestRegistry(t *testing.T) *semester.Registry {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "data.json"), nil)
	doc, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return semester.NewRegistry(doc, st, nil)
}

func newTestApp(t *testing.T) (App, *semester.Registry) {
	t.Helper()
	reg := newTestRegistry(t)
	app := NewApp(reg, assignment.NewGenerator(t.TempDir(), nil), t.TempDir())
	app.width = 120
	app.height = 50
	return app, reg
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runStatus executes cmd and returns the status message it produced.
func runStatus(t *testing.T, cmd tea.Cmd) statusMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(statusMsg)
	if !ok {
		t.Fatalf("expected statusMsg, got %T", cmd())
	}
	return msg
}

// ============================================================
// Grid model
// ============================================================

func TestGridCursorMovement(t *testing.T) {
	reg := newTestRegistry(t)
	g := newGridModel(reg, assignment.NewGenerator("", nil))

	if g.cursorKey() != (timetable.Key{Day: "月", Period: 1}) {
		t.Fatalf("initial cursor = %v", g.cursorKey())
	}

	g, _ = g.update(tea.KeyMsg{Type: tea.KeyUp})
	g, _ = g.update(tea.KeyMsg{Type: tea.KeyLeft})
	if g.row != 0 || g.col != 0 {
		t.Fatal("cursor should clamp at top-left")
	}

	g, _ = g.update(tea.KeyMsg{Type: tea.KeyRight})
	g, _ = g.update(keyRunes("j"))
	if g.cursorKey() != (timetable.Key{Day: "火", Period: 2}) {
		t.Fatalf("cursor = %v, want 火-2", g.cursorKey())
	}

	for i := 0; i < 10; i++ {
		g, _ = g.update(tea.KeyMsg{Type: tea.KeyDown})
		g, _ = g.update(keyRunes("l"))
	}
	if g.cursorKey() != (timetable.Key{Day: "金", Period: 6}) {
		t.Fatalf("cursor should clamp at bottom-right, got %v", g.cursorKey())
	}
}

func TestGridEditFormPrefills(t *testing.T) {
	reg := newTestRegistry(t)
	reg.SetSlot(timetable.Key{Day: "月", Period: 1}, timetable.Slot{Subject: "Math", Teacher: "Sato", NotePath: "n.md"})
	g := newGridModel(reg, assignment.NewGenerator("", nil))

	g, cmd := g.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !g.formActive || g.formType != "edit" {
		t.Fatal("enter should open the edit form")
	}
	if cmd == nil {
		t.Fatal("form init should return a command")
	}
	if *g.formSubject != "Math" || *g.formTeacher != "Sato" || *g.formNote != "n.md" {
		t.Fatal("form should be prefilled from the slot")
	}

	g, _ = g.update(tea.KeyMsg{Type: tea.KeyEsc})
	if g.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestGridCommitEdit(t *testing.T) {
	reg := newTestRegistry(t)
	g := newGridModel(reg, assignment.NewGenerator("", nil))
	g, _ = g.showEditForm()

	*g.formSubject = "Physics"
	*g.formClassroom = "B2"
	g, cmd := g.commitForm()
	if g.formActive {
		t.Fatal("form should close")
	}
	if msg := runStatus(t, cmd); msg.isError || !strings.Contains(msg.text, "Saved") {
		t.Fatalf("unexpected status: %+v", msg)
	}

	slot, ok := reg.Timetable().Get(timetable.Key{Day: "月", Period: 1})
	if !ok || slot.Subject != "Physics" || slot.Classroom != "B2" {
		t.Fatalf("slot not saved: %+v", slot)
	}
}

func TestGridCommitEditAllEmptyClears(t *testing.T) {
	reg := newTestRegistry(t)
	k := timetable.Key{Day: "月", Period: 1}
	reg.SetSlot(k, timetable.Slot{Subject: "Math"})
	g := newGridModel(reg, assignment.NewGenerator("", nil))
	g, _ = g.showEditForm()

	*g.formSubject = ""
	g, cmd := g.commitForm()
	if msg := runStatus(t, cmd); !strings.Contains(msg.text, "Cleared") {
		t.Fatalf("unexpected status: %+v", msg)
	}
	if _, ok := reg.Timetable().Get(k); ok {
		t.Fatal("slot should be removed")
	}
}

func TestGridDelete(t *testing.T) {
	reg := newTestRegistry(t)
	k := timetable.Key{Day: "月", Period: 1}
	g := newGridModel(reg, assignment.NewGenerator("", nil))

	// Nothing to delete.
	g, _ = g.update(keyRunes("d"))
	if g.formActive {
		t.Fatal("delete on an empty cell should do nothing")
	}

	reg.SetSlot(k, timetable.Slot{Subject: "Math"})
	g, _ = g.update(keyRunes("d"))
	if !g.formActive || g.formType != "delete" {
		t.Fatal("d should open the confirmation")
	}

	// Declined.
	g, cmd := g.commitForm()
	if cmd != nil {
		t.Fatal("declined delete should do nothing")
	}
	if _, ok := reg.Timetable().Get(k); !ok {
		t.Fatal("slot should remain")
	}

	g, _ = g.showDeleteForm()
	*g.formConfirm = true
	_, cmd = g.commitForm()
	runStatus(t, cmd)
	if _, ok := reg.Timetable().Get(k); ok {
		t.Fatal("slot should be deleted")
	}
}

func TestGridAssignmentRequiresSubject(t *testing.T) {
	reg := newTestRegistry(t)
	g := newGridModel(reg, assignment.NewGenerator("", nil))

	g, cmd := g.update(keyRunes("g"))
	if g.formActive {
		t.Fatal("no form without a subject")
	}
	if msg := runStatus(t, cmd); !msg.isError {
		t.Fatal("expected error status")
	}
}

func TestGridAssignmentRequiresSettings(t *testing.T) {
	reg := newTestRegistry(t)
	reg.SetSlot(timetable.Key{Day: "月", Period: 1}, timetable.Slot{Subject: "Math"})
	g := newGridModel(reg, assignment.NewGenerator("", nil))

	g, cmd := g.update(keyRunes("g"))
	if g.formActive {
		t.Fatal("no form without template and student ID")
	}
	msg := runStatus(t, cmd)
	if !msg.isError || !strings.Contains(msg.text, "template") || !strings.Contains(msg.text, "student ID") {
		t.Fatalf("status should list both problems: %q", msg.text)
	}
}

func TestGridAssignmentGenerates(t *testing.T) {
	reg := newTestRegistry(t)
	tmpl := filepath.Join(t.TempDir(), "t.docx")
	os.WriteFile(tmpl, []byte("template"), 0o644)
	reg.SetTemplatePath(tmpl)
	reg.SetStudentID("S1")
	reg.SetSlot(timetable.Key{Day: "月", Period: 1}, timetable.Slot{Subject: "Math"})

	out := t.TempDir()
	g := newGridModel(reg, assignment.NewGenerator(out, nil))
	g, _ = g.update(keyRunes("g"))
	if !g.formActive || g.formType != "assignment" {
		t.Fatal("g should open the assignment form")
	}

	*g.formSequence = "3"
	_, cmd := g.commitForm()
	msg := runStatus(t, cmd)
	if msg.isError {
		t.Fatalf("unexpected error: %s", msg.text)
	}

	want := filepath.Join(out, "Math_第3回_S1.docx")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "template" {
		t.Fatalf("content = %q", data)
	}
}

func TestRenderCell(t *testing.T) {
	got := renderCell("", 8)
	if got != "\n\n" {
		t.Fatalf("empty cell = %q", got)
	}
	got = renderCell("Mathematics\nSato\nA101", 6)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[1] != "Sato" || lines[2] != "A101" {
		t.Fatalf("short lines should be kept: %q", lines)
	}
	if !strings.HasSuffix(lines[0], "…") {
		t.Fatalf("long line should be truncated: %q", lines[0])
	}
}

func TestGridView(t *testing.T) {
	reg := newTestRegistry(t)
	reg.SetSlot(timetable.Key{Day: "水", Period: 4}, timetable.Slot{Subject: "Bio"})
	g := newGridModel(reg, assignment.NewGenerator("", nil))
	g.setSize(120, 46)

	out := g.view()
	for _, want := range []string{"月", "金", "1限", "6限", "Bio", "Default"} {
		if !strings.Contains(out, want) {
			t.Fatalf("grid view missing %q", want)
		}
	}
}

// ============================================================
// Semesters model
// ============================================================

func TestSemestersAdd(t *testing.T) {
	reg := newTestRegistry(t)
	s := newSemestersModel(reg)

	s, _ = s.update(keyRunes("n"))
	if !s.formActive || s.formType != "add" {
		t.Fatal("n should open the add form")
	}
	*s.formName = "  2025 後期 "
	s, cmd := s.commitForm()
	runStatus(t, cmd)
	if reg.Len() != 2 {
		t.Fatalf("expected 2 semesters, got %d", reg.Len())
	}
	if _, err := reg.Semester("2025 後期"); err != nil {
		t.Fatal("name should be trimmed")
	}

	// Duplicate
	s, _ = s.showAddForm()
	*s.formName = "2025 後期"
	_, cmd = s.commitForm()
	if msg := runStatus(t, cmd); !msg.isError {
		t.Fatal("duplicate should report an error")
	}
}

func TestSemestersSwitch(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Add("B")
	s := newSemestersModel(reg)

	s, _ = s.update(tea.KeyMsg{Type: tea.KeyDown})
	if s.selected() != "B" {
		t.Fatalf("selected = %q", s.selected())
	}
	s, cmd := s.update(tea.KeyMsg{Type: tea.KeyEnter})
	runStatus(t, cmd)
	if reg.Current() != "B" {
		t.Fatalf("current = %q, want B", reg.Current())
	}

	// Switching to the current semester is silent.
	_, cmd = s.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no command")
	}
}

func TestSemestersDeleteLast(t *testing.T) {
	reg := newTestRegistry(t)
	s := newSemestersModel(reg)

	s, cmd := s.update(keyRunes("d"))
	if s.formActive {
		t.Fatal("no confirmation for the last semester")
	}
	if msg := runStatus(t, cmd); !msg.isError {
		t.Fatal("expected error")
	}
}

func TestSemestersRemoveCurrent(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Add("A")
	reg.SwitchTo("A")
	s := newSemestersModel(reg).focusCurrent()
	if s.selected() != "A" {
		t.Fatalf("focus should be on current, got %q", s.selected())
	}

	s, _ = s.update(keyRunes("d"))
	if !s.formActive || s.formType != "remove" || s.target != "A" {
		t.Fatal("d should ask to remove A")
	}
	*s.formConfirm = true
	s, cmd := s.commitForm()
	runStatus(t, cmd)

	if reg.Len() != 1 || reg.Current() != store.DefaultSemester {
		t.Fatalf("unexpected state: len=%d current=%q", reg.Len(), reg.Current())
	}
	if s.cursor != 0 {
		t.Fatalf("cursor should clamp, got %d", s.cursor)
	}
}

func TestSemestersReset(t *testing.T) {
	reg := newTestRegistry(t)
	reg.SetSlot(timetable.Key{Day: "月", Period: 1}, timetable.Slot{Subject: "Math"})
	s := newSemestersModel(reg)

	s, _ = s.update(keyRunes("r"))
	if s.formType != "reset" {
		t.Fatal("r should ask for reset")
	}
	*s.formConfirm = true
	_, cmd := s.commitForm()
	runStatus(t, cmd)
	if len(reg.Timetable()) != 0 {
		t.Fatal("current timetable should be empty")
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsSave(t *testing.T) {
	reg := newTestRegistry(t)
	s := newSettingsModel(reg, assignment.NewGenerator("", nil))

	s, _ = s.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !s.formActive {
		t.Fatal("enter should open the form")
	}

	tmpl := filepath.Join(t.TempDir(), "t.docx")
	os.WriteFile(tmpl, []byte("x"), 0o644)
	*s.templatePath = tmpl
	*s.studentID = "S1"
	s, cmd := s.saveSettings()
	runStatus(t, cmd)

	if reg.TemplatePath() != tmpl || reg.StudentID() != "S1" {
		t.Fatal("settings not saved")
	}

	// Blank student ID keeps the old value.
	s, _ = s.showForm()
	*s.studentID = ""
	_, cmd = s.saveSettings()
	if cmd != nil {
		t.Fatal("nothing changed, no status expected")
	}
	if reg.StudentID() != "S1" {
		t.Fatal("blank ID should be ignored")
	}
}

func TestValidateTemplatePath(t *testing.T) {
	if validateTemplatePath("") != nil {
		t.Fatal("blank is allowed")
	}
	if validateTemplatePath(filepath.Join(t.TempDir(), "missing")) == nil {
		t.Fatal("missing file should fail")
	}
	if validateTemplatePath(t.TempDir()) == nil {
		t.Fatal("directory should fail")
	}
}

func TestSettingsViewShowsProblems(t *testing.T) {
	reg := newTestRegistry(t)
	s := newSettingsModel(reg, assignment.NewGenerator("", nil))
	s.setSize(120, 40)
	out := s.view()
	if !strings.Contains(out, "unavailable") {
		t.Fatal("view should explain why assignments are unavailable")
	}
}

// ============================================================
// Stats model
// ============================================================

func TestSubjectCounts(t *testing.T) {
	tt := timetable.New()
	tt.Set(timetable.Key{Day: "月", Period: 1}, timetable.Slot{Subject: "Math"})
	tt.Set(timetable.Key{Day: "火", Period: 1}, timetable.Slot{Subject: "Math"})
	tt.Set(timetable.Key{Day: "水", Period: 1}, timetable.Slot{Subject: "Art"})
	tt.Set(timetable.Key{Day: "木", Period: 1}, timetable.Slot{NotePath: "only-note.md"})

	got := subjectCounts(tt)
	if len(got) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(got))
	}
	if got[0].subject != "Math" || got[0].periods != 2 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].subject != "Art" || got[1].periods != 1 {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestStatsView(t *testing.T) {
	reg := newTestRegistry(t)
	reg.SetSlot(timetable.Key{Day: "月", Period: 1}, timetable.Slot{Subject: "Math"})
	s := newStatsModel(reg)
	s.setSize(120, 40)
	out := s.view()
	if !strings.Contains(out, "Math") {
		t.Fatal("stats should list subjects")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	if app.activeView != viewTimetable {
		t.Fatal("default view should be the timetable")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppTabs(t *testing.T) {
	app, _ := newTestApp(t)

	m, _ := app.Update(keyRunes("2"))
	app = m.(App)
	if app.activeView != viewSemesters {
		t.Fatal("2 should open semesters")
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewStats {
		t.Fatal("tab should advance to stats")
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.(App).Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.(App).activeView != viewTimetable {
		t.Fatal("tab should wrap around")
	}
}

func TestAppViewStates(t *testing.T) {
	app, _ := newTestApp(t)

	views := []viewState{viewTimetable, viewSemesters, viewStats, viewSettings}
	for _, v := range views {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeader(t *testing.T) {
	app, _ := newTestApp(t)

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
	if !strings.Contains(header, store.DefaultSemester) {
		t.Fatal("header should show the current semester")
	}
}

func TestAppLoadingState(t *testing.T) {
	app, _ := newTestApp(t)
	app.width = 0
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _ := newTestApp(t)
	m, _ := app.Update(statusMsg{text: "test status"})
	if !strings.Contains(m.(App).renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}

	app = app.WithStatus("load warning", true)
	if !app.statusError || !strings.Contains(app.renderFooter(), "load warning") {
		t.Fatal("initial status should be shown")
	}
}

func TestAppFormCapturesKeys(t *testing.T) {
	app, _ := newTestApp(t)
	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(App)
	if !app.isFormActive() {
		t.Fatal("enter should open the edit form")
	}

	// While the form is open, "2" is typed into the form, not a tab switch.
	m, _ = app.Update(keyRunes("2"))
	if m.(App).activeView != viewTimetable {
		t.Fatal("form should capture keys")
	}
}

func TestAppExport(t *testing.T) {
	app, reg := newTestApp(t)
	reg.SetSlot(timetable.Key{Day: "月", Period: 1}, timetable.Slot{Subject: "Math"})

	m, _ := app.Update(keyRunes("e"))
	app = m.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}

	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(App)
	if app.exportPicking {
		t.Fatal("picker should close")
	}
	done, ok := cmd().(exportDoneMsg)
	if !ok {
		t.Fatalf("expected exportDoneMsg, got %T", cmd())
	}
	if filepath.Dir(done.path) != app.exportDir || filepath.Ext(done.path) != ".csv" {
		t.Fatalf("unexpected export path %q", done.path)
	}
	if _, err := os.Stat(done.path); err != nil {
		t.Fatal(err)
	}

	m, _ = app.Update(done)
	if !strings.Contains(m.(App).status, done.path) {
		t.Fatal("status should name the export")
	}
}

func TestFileNameSafe(t *testing.T) {
	if got := fileNameSafe("2025/前期:A"); got != "2025_前期_A" {
		t.Fatalf("fileNameSafe = %q", got)
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}
