package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/shelfdesk/shelfdesk/internal/tui/styles"
)

// row is one rendered record in an entity list.
type row struct {
	id     int
	title  string
	detail string
}

// rowSource implements fuzzy.Source over a row slice.
type rowSource []row

func (s rowSource) String(i int) string { return strings.ToLower(s[i].title) }
func (s rowSource) Len() int            { return len(s) }

// entityList is a scrollable, fuzzy-filterable list of records.
type entityList struct {
	rows    []row
	visible []int // Indexes into rows after filtering
	cursor  int
	offset  int
	loading bool
}

func (l *entityList) setRows(rows []row) {
	l.rows = rows
	l.loading = false
	l.applyFilter("")
}

// applyFilter narrows the visible rows with fuzzy matching. An empty query
// shows everything in collection order.
func (l *entityList) applyFilter(query string) {
	query = strings.TrimSpace(strings.ToLower(query))
	l.visible = l.visible[:0]
	if query == "" {
		for i := range l.rows {
			l.visible = append(l.visible, i)
		}
	} else {
		for _, m := range fuzzy.FindFrom(query, rowSource(l.rows)) {
			l.visible = append(l.visible, m.Index)
		}
	}
	if l.cursor >= len(l.visible) {
		l.cursor = len(l.visible) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.offset = 0
}

func (l *entityList) moveCursor(delta, pageSize int) {
	l.cursor += delta
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor > len(l.visible)-1 {
		l.cursor = len(l.visible) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+pageSize {
		l.offset = l.cursor - pageSize + 1
	}
}

// selected returns the record under the cursor.
func (l *entityList) selected() (row, bool) {
	if len(l.visible) == 0 || l.cursor >= len(l.visible) {
		return row{}, false
	}
	return l.rows[l.visible[l.cursor]], true
}

func (l *entityList) render(width, height int, frame int) string {
	if l.loading {
		return styles.DimStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)] + " loading...")
	}
	if len(l.visible) == 0 {
		return styles.DimStyle.Render("no records")
	}

	var b strings.Builder
	end := l.offset + height
	if end > len(l.visible) {
		end = len(l.visible)
	}
	for i := l.offset; i < end; i++ {
		r := l.rows[l.visible[i]]
		line := r.title
		if r.detail != "" {
			line += "  " + styles.DimStyle.Render(r.detail)
		}
		if i == l.cursor {
			line = styles.HighlightStyle.Render(r.title) + "  " + styles.DimStyle.Render(r.detail)
		}
		b.WriteString(lipgloss.NewStyle().MaxWidth(width).Render(line))
		b.WriteString("\n")
	}
	if end < len(l.visible) {
		b.WriteString(styles.DimStyle.Render("↓ more"))
	}
	return strings.TrimRight(b.String(), "\n")
}
