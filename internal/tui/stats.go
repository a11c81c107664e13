package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/classcal/internal/semester"
	"github.com/sadopc/classcal/internal/timetable"
)

type statsModel struct {
	reg    *semester.Registry
	width  int
	height int
}

func newStatsModel(reg *semester.Registry) statsModel {
	return statsModel{reg: reg}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type subjectCount struct {
	subject string
	periods int
}

// subjectCounts returns periods per week for each subject, most first.
func subjectCounts(tt timetable.Timetable) []subjectCount {
	counts := make(map[string]int)
	for _, k := range timetable.Grid() {
		if slot, ok := tt.Get(k); ok && slot.Subject != "" {
			counts[slot.Subject]++
		}
	}
	out := make([]subjectCount, 0, len(counts))
	for subj, n := range counts {
		out = append(out, subjectCount{subject: subj, periods: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].periods != out[j].periods {
			return out[i].periods > out[j].periods
		}
		return out[i].subject < out[j].subject
	})
	return out
}

func (s statsModel) buildChart() barchart.Model {
	chartWidth := s.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if s.height > 30 {
		chartHeight = 14
	}

	chart := barchart.New(chartWidth, chartHeight)

	counts := s.reg.Timetable().CountByDay()
	var bars []barchart.BarData
	for i, day := range timetable.Days {
		bars = append(bars, barchart.BarData{
			Label: day,
			Values: []barchart.BarValue{{
				Name:  day,
				Value: float64(counts[i]),
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}},
		})
	}

	chart.PushAll(bars)
	chart.Draw()
	return chart
}

func (s statsModel) view() string {
	w := s.width - 4
	tt := s.reg.Timetable()

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Classes per day"), "  ", mutedStyle.Render(s.reg.Current()),
	)

	chart := s.buildChart()

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chart.View(), "", s.renderSubjectTable(w, tt),
		),
	)
}

func (s statsModel) renderSubjectTable(w int, tt timetable.Timetable) string {
	counts := subjectCounts(tt)
	if len(counts) == 0 {
		return mutedStyle.Render("  No classes in this semester")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %8s", "Subject", "Periods")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 37)))))
	total := 0
	for _, c := range counts {
		rows = append(rows, fmt.Sprintf("  %-28s %8d", c.subject, c.periods))
		total += c.periods
	}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %8d", "Total", total)))
	return strings.Join(rows, "\n")
}
