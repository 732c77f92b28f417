package ui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/nsqwire/internal/protocol"
)

// FrameRow is one decoded frame prepared for display
type FrameRow struct {
	Index   int
	Offset  int    // byte offset of the frame in the stream
	Size    int    // bytes on the wire
	Kind    string // value type, or "DecodeError"
	Summary string
	Value   protocol.Value // nil for decode errors
	Err     error
	Raw     []byte // wire bytes of the frame, when the caller kept them
}

// NewFrameRow describes a decoded value
func NewFrameRow(index, offset int, v protocol.Value, n int) FrameRow {
	return FrameRow{
		Index:   index,
		Offset:  offset,
		Size:    n,
		Kind:    v.Type().String(),
		Summary: Summarize(v),
		Value:   v,
	}
}

// NewErrorRow describes a decode failure at offset
func NewErrorRow(index, offset int, err error) FrameRow {
	return FrameRow{
		Index:   index,
		Offset:  offset,
		Kind:    "DecodeError",
		Summary: err.Error(),
		Err:     err,
	}
}

// Summarize returns a one-line description of a value
func Summarize(v protocol.Value) string {
	switch v := v.(type) {
	case protocol.Response:
		return strconv.Quote(v.Text)
	case protocol.Heartbeat:
		return "reply with NOP"
	case protocol.RemoteError:
		return v.Text
	case protocol.Message:
		return fmt.Sprintf("id=%s attempts=%d ts=%s body=%s",
			v.ID, v.Attempts, v.Time().UTC().Format("2006-01-02T15:04:05.000Z"), previewBody(v.Body, 24))
	default:
		return v.String()
	}
}

func previewBody(body []byte, limit int) string {
	if len(body) == 0 {
		return `""`
	}
	if !utf8.Valid(body) {
		return fmt.Sprintf("<%d bytes>", len(body))
	}
	if len(body) > limit {
		return strconv.Quote(string(body[:limit])) + "…"
	}
	return strconv.Quote(string(body))
}

// FrameTable renders rows with bubbles/table, sized to width
func FrameTable(rows []FrameRow, width int) table.Model {
	width = clampWidth(width)
	summaryWidth := width - (5 + 8 + 7 + 12) - 10
	if summaryWidth < 20 {
		summaryWidth = 20
	}

	columns := []table.Column{
		{Title: "#", Width: 5},
		{Title: "Offset", Width: 8},
		{Title: "Bytes", Width: 7},
		{Title: "Kind", Width: 12},
		{Title: "Summary", Width: summaryWidth},
	}

	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		tableRows[i] = table.Row{
			strconv.Itoa(r.Index),
			strconv.Itoa(r.Offset),
			strconv.Itoa(r.Size),
			r.Kind,
			r.Summary,
		}
	}

	height := len(rows) + 1
	if height > DefaultHeight {
		height = DefaultHeight
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(height),
		table.WithFocused(false),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(PrimaryColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor).
		Bold(false)
	t.SetStyles(styles)

	return t
}

// RenderFrameLines renders rows as plain aligned text, for pipes and files
func RenderFrameLines(rows []FrameRow) string {
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%4d  %8d  %6d  %-12s %s\n", r.Index, r.Offset, r.Size, r.Kind, r.Summary)
	}
	return b.String()
}

// RenderHexDump renders data as offset, hex and ascii columns, 16 bytes per line
func RenderHexDump(data []byte) string {
	var lines []string
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]

		var hexPart strings.Builder
		for i := 0; i < 16; i++ {
			if i < len(chunk) {
				fmt.Fprintf(&hexPart, "%02x ", chunk[i])
			} else {
				hexPart.WriteString("   ")
			}
			if i == 7 {
				hexPart.WriteByte(' ')
			}
		}

		ascii := make([]byte, len(chunk))
		for i, c := range chunk {
			if c >= 32 && c <= 126 {
				ascii[i] = c
			} else {
				ascii[i] = '.'
			}
		}

		lines = append(lines,
			HexOffsetStyle.Render(fmt.Sprintf("%08x", off))+"  "+
				HexBytesStyle.Render(hexPart.String())+" "+
				HexASCIIStyle.Render("|"+string(ascii)+"|"))
	}
	return strings.Join(lines, "\n")
}
