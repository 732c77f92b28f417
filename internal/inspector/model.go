package inspector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/nsqwire/internal/protocol"
	"github.com/muurk/nsqwire/internal/ui"
)

// chrome is the number of lines used by the title, filter and help rows
const chrome = 6

// Model is the Bubble Tea model for the frame browser
type Model struct {
	Source string
	Width  int
	Height int

	rows    []ui.FrameRow
	visible []int // indices into rows that pass the filter

	table  table.Model
	detail viewport.Model
	filter textinput.Model
	help   help.Model

	keys       keyMap
	filterKeys filterKeyMap

	filtering bool
	showHex   bool
}

// New creates a browser over rows. Source names the capture in the title.
func New(rows []ui.FrameRow, source string) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "kind or text"
	ti.CharLimit = 64

	width, height := ui.MinTerminalWidth, ui.DefaultHeight
	m := Model{
		Source:     source,
		Width:      width,
		Height:     height,
		rows:       rows,
		detail:     viewport.New(width, height/2),
		filter:     ti,
		help:       help.New(),
		keys:       newKeyMap(),
		filterKeys: newFilterKeyMap(),
		showHex:    true,
	}
	m.applyFilter("")
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.filterKeys.Apply):
		m.filtering = false
		m.filter.Blur()
		m.table.Focus()
		return m, nil

	case key.Matches(msg, m.filterKeys.Cancel):
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter("")
		m.table.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter(m.filter.Value())
	m.table.Blur()
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.table.Blur()
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Clear):
		m.filter.SetValue("")
		m.applyFilter("")
		return m, nil

	case key.Matches(msg, m.keys.Hex):
		m.showHex = !m.showHex
		m.refreshDetail()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.DetailUp):
		m.detail.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.DetailDown):
		m.detail.LineDown(1)
		return m, nil
	}

	before := m.table.Cursor()
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if m.table.Cursor() != before {
		m.refreshDetail()
	}
	return m, cmd
}

// applyFilter rebuilds the table from rows whose kind or summary contains
// query, case-insensitively
func (m *Model) applyFilter(query string) {
	query = strings.ToLower(strings.TrimSpace(query))

	m.visible = make([]int, 0, len(m.rows))
	shown := make([]ui.FrameRow, 0, len(m.rows))
	for i, r := range m.rows {
		if query != "" &&
			!strings.Contains(strings.ToLower(r.Kind), query) &&
			!strings.Contains(strings.ToLower(r.Summary), query) {
			continue
		}
		m.visible = append(m.visible, i)
		shown = append(shown, r)
	}

	m.table = ui.FrameTable(shown, m.Width)
	m.table.Focus()
	m.layout()
}

// layout splits the height between the table and the detail pane
func (m *Model) layout() {
	avail := m.Height - chrome
	if m.help.ShowAll {
		avail -= 3
	}
	if avail < 6 {
		avail = 6
	}

	tableHeight := avail / 2
	m.table.SetHeight(tableHeight)
	m.detail.Width = m.Width
	m.detail.Height = avail - tableHeight
	m.refreshDetail()
}

// Selected returns the frame under the cursor
func (m Model) Selected() (ui.FrameRow, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.visible) {
		return ui.FrameRow{}, false
	}
	return m.rows[m.visible[cursor]], true
}

// Visible returns the number of frames passing the current filter
func (m Model) Visible() int {
	return len(m.visible)
}

func (m *Model) refreshDetail() {
	row, ok := m.Selected()
	if !ok {
		m.detail.SetContent(ui.HintStyle.Render("no frames match"))
		return
	}
	m.detail.SetContent(renderDetail(row, m.showHex))
	m.detail.GotoTop()
}

// View implements tea.Model
func (m Model) View() string {
	title := ui.HeaderTitleStyle.Render("nsqwire inspect") +
		ui.HeaderCommandStyle.Render(fmt.Sprintf("%s · %d/%d frames", m.Source, len(m.visible), len(m.rows)))

	divider := ui.RenderHorizontalDivider(m.Width, "─")

	var footer string
	if m.filtering {
		footer = m.filter.View() + "\n" + m.help.View(m.filterKeys)
	} else {
		if q := m.filter.Value(); q != "" {
			footer = ui.HintStyle.Render("filter: "+q) + "\n"
		}
		footer += m.help.View(m.keys)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.table.View(),
		divider,
		m.detail.View(),
		divider,
		footer,
	)
}

func renderDetail(row ui.FrameRow, showHex bool) string {
	var b strings.Builder

	b.WriteString(ui.KindStyle(row.Kind).Render(row.Kind))
	fmt.Fprintf(&b, "  #%d  offset %d", row.Index, row.Offset)
	if row.Size > 0 {
		fmt.Fprintf(&b, "  %d bytes", row.Size)
	}
	b.WriteString("\n\n")

	switch v := row.Value.(type) {
	case nil:
		field(&b, "error", row.Summary)
		if kind := protocol.KindOf(row.Err); kind != 0 {
			field(&b, "kind", kind.String())
			field(&b, "fatal", strconv.FormatBool(kind.Fatal()))
		}
	case protocol.Response:
		field(&b, "text", strconv.Quote(v.Text))
	case protocol.Heartbeat:
		field(&b, "action", "reply with NOP")
	case protocol.RemoteError:
		field(&b, "code", v.Code())
		field(&b, "text", v.Text)
	case protocol.Message:
		field(&b, "id", v.ID.String())
		field(&b, "attempts", strconv.Itoa(int(v.Attempts)))
		field(&b, "timestamp", v.Time().UTC().Format(time.RFC3339Nano))
		field(&b, "body size", strconv.Itoa(len(v.Body)))
		if utf8.Valid(v.Body) {
			field(&b, "body", strconv.Quote(string(v.Body)))
		}
	default:
		field(&b, "value", v.String())
	}

	if showHex && len(row.Raw) > 0 {
		b.WriteString("\n")
		b.WriteString(ui.RenderHexDump(row.Raw))
		b.WriteString("\n")
	}
	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(ui.ResultKeyStyle.Render(name+":") + " " + ui.ResultValueStyle.Render(value) + "\n")
}

// Run starts the browser on the alternate screen and blocks until the
// user quits
func Run(rows []ui.FrameRow, source string) error {
	p := tea.NewProgram(New(rows, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
