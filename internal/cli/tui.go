package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgrendahl/tackle/internal/dashboard"
	"github.com/mgrendahl/tackle/pkg/crm"
	"github.com/mgrendahl/tackle/pkg/grid"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// boardColors are cycled through so each widget gets a stable color
// from the palette.
var boardColors = []lipgloss.Color{
	colorCyan, colorGreen, colorYellow, colorBlue, colorRed, colorGray,
}

// cellWidth is how many terminal columns one grid column takes on the
// rendered board.
const cellWidth = 2

// =============================================================================
// layoutModel - Interactive widget board preview
// =============================================================================

// layoutModel is the bubbletea model behind "admin layout". It renders
// a preferences record's widget board as a 12-column grid and lets the
// operator step through widgets and compact the board. Edits stay in
// the model; nothing is written back.
type layoutModel struct {
	userID    string
	visible   []grid.WidgetID
	layout    grid.Layout
	cursor    int
	compacted bool
}

// newLayoutModel builds the preview model from a preferences record.
// Only visible widgets that hold a placement are shown; a well-formed
// record has one for every visible widget.
func newLayoutModel(userID string, prefs crm.Preferences) layoutModel {
	visible := make([]grid.WidgetID, 0, len(prefs.VisibleWidgets))
	for _, id := range prefs.VisibleWidgets {
		if _, ok := prefs.Layout[id]; ok {
			visible = append(visible, id)
		}
	}
	return layoutModel{
		userID:  userID,
		visible: visible,
		layout:  prefs.Layout.Clone(),
	}
}

func (m layoutModel) Init() tea.Cmd {
	return nil
}

func (m layoutModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case "c":
			m.layout = grid.Compact(m.layout, m.visible)
			m.compacted = true
		}
	}
	return m, nil
}

func (m layoutModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Dashboard Layout"))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(m.userID))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("j/k navigate  c compact  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.renderBoard())
	b.WriteString("\n")
	b.WriteString(m.renderLegend())

	if m.compacted {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  compacted (preview only, not saved)"))
		b.WriteString("\n")
	}

	return b.String()
}

// renderBoard draws the occupancy grid, one letter per widget.
func (m layoutModel) renderBoard() string {
	rows := m.layout.Rows()
	if rows == 0 {
		return listDimStyle.Render("  (empty board)") + "\n"
	}

	// cells[y][x] holds the index of the widget covering the cell, -1
	// for empty. The engine never stores overlaps; letting later
	// widgets win here is display-only tolerance.
	cells := make([][]int, rows)
	for y := range cells {
		cells[y] = make([]int, grid.Columns)
		for x := range cells[y] {
			cells[y][x] = -1
		}
	}
	for i, id := range m.visible {
		p := m.layout[id]
		for y := p.Y; y < p.Bottom() && y < rows; y++ {
			for x := p.X; x < p.Right() && x < grid.Columns; x++ {
				if y >= 0 && x >= 0 {
					cells[y][x] = i
				}
			}
		}
	}

	var b strings.Builder
	for y := 0; y < rows; y++ {
		b.WriteString("  ")
		for x := 0; x < grid.Columns; x++ {
			i := cells[y][x]
			if i < 0 {
				b.WriteString(listDimStyle.Render(strings.Repeat("·", cellWidth)))
				continue
			}
			cell := strings.Repeat(string(widgetLetter(i)), cellWidth)
			style := lipgloss.NewStyle().Foreground(boardColors[i%len(boardColors)])
			if i == m.cursor {
				style = style.Bold(true).Reverse(true)
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderLegend lists the visible widgets with their placements.
func (m layoutModel) renderLegend() string {
	var b strings.Builder
	for i, id := range m.visible {
		p := m.layout[id]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		title := string(id)
		if w, ok := dashboard.LookupWidget(id); ok {
			title = w.Title
		}

		line := fmt.Sprintf("%s%c %-18s %d,%d %dx%d", cursor, widgetLetter(i), title, p.X, p.Y, p.W, p.H)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.visible))))
	return b.String()
}

// widgetLetter maps a widget index to its board letter (A, B, C, ...).
func widgetLetter(i int) rune {
	return rune('A' + i%26)
}
