package ui

import (
	"encoding/base64"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	TypeCard     = "card"
	TypeTable    = "table"
	TypeTimeline = "timeline"
	TypeQRCode   = "qrcode"

	defaultQRSize = 256
)

var defaultRows = [][]string{
	{"Task", "Status"},
	{"Project Setup", "Complete"},
	{"API Integration", "In Progress"},
}

type milestone struct {
	Title  string
	Status string
}

var defaultMilestones = []milestone{
	{Title: "Phase 1", Status: "Complete"},
	{Title: "Phase 2", Status: "In Progress"},
	{Title: "Phase 3", Status: "Pending"},
}

// HTMLRenderer renders small inline-styled HTML widgets for the chat UI.
// Every interpolated value is HTML-escaped.
type HTMLRenderer struct {
	QRSize int
}

// NewHTMLRenderer creates a renderer with default sizing
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{QRSize: defaultQRSize}
}

// Render returns the HTML fragment for kind. Unknown kinds get a plain box.
func (r *HTMLRenderer) Render(kind string, data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}

	switch kind {
	case TypeCard:
		return renderCard(data), nil
	case TypeTable:
		return renderTable(data), nil
	case TypeTimeline:
		return renderTimeline(data), nil
	case TypeQRCode:
		return r.renderQRCode(data)
	default:
		return fmt.Sprintf(`<div style="padding: 20px; background: white; border-radius: 8px; color: #333;">%s</div>`,
			esc(textOr(data["content"], "UI Element"))), nil
	}
}

func renderCard(data map[string]any) string {
	return fmt.Sprintf(`
<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 20px; border-radius: 10px; color: white;">
  <h3 style="margin: 0 0 10px 0; font-size: 18px; font-weight: bold;">%s</h3>
  <p style="margin: 0; opacity: 0.9;">%s</p>
</div>`,
		esc(textOr(data["title"], "Card Title")),
		esc(textOr(data["content"], "Card content goes here")),
	)
}

func renderTable(data map[string]any) string {
	rows := tableRows(data["rows"])
	if len(rows) == 0 {
		rows = defaultRows
	}

	var b strings.Builder
	b.WriteString(`<table style="width: 100%; border-collapse: collapse; background: white; color: #333;">`)
	for i, row := range rows {
		style := "border-bottom: 1px solid #ddd;"
		if i == 0 {
			style = "background: #667eea; color: white; font-weight: bold;"
		}
		fmt.Fprintf(&b, `<tr style="%s">`, style)
		for _, cell := range row {
			fmt.Fprintf(&b, `<td style="padding: 10px;">%s</td>`, esc(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func renderTimeline(data map[string]any) string {
	milestones := timelineMilestones(data["milestones"])
	if len(milestones) == 0 {
		milestones = defaultMilestones
	}

	var b strings.Builder
	b.WriteString(`<div style="position: relative; padding-left: 30px;">`)
	for i, m := range milestones {
		b.WriteString(`<div style="position: relative; margin-bottom: 20px;">`)
		fmt.Fprintf(&b, `<div style="position: absolute; left: -25px; top: 0; width: 12px; height: 12px; border-radius: 50%%; background: %s;"></div>`, statusColor(m.Status))
		if i < len(milestones)-1 {
			b.WriteString(`<div style="position: absolute; left: -19px; top: 12px; width: 2px; height: 20px; background: #e5e7eb;"></div>`)
		}
		fmt.Fprintf(&b, `<div><h4 style="margin: 0 0 5px 0; font-size: 14px; font-weight: bold; color: white;">%s</h4>`, esc(m.Title))
		fmt.Fprintf(&b, `<span style="font-size: 12px; color: rgba(255,255,255,0.7);">%s</span></div>`, esc(m.Status))
		b.WriteString("</div>")
	}
	b.WriteString("</div>")
	return b.String()
}

func statusColor(status string) string {
	switch status {
	case "Complete":
		return "#10b981"
	case "In Progress":
		return "#f59e0b"
	default:
		return "#6b7280"
	}
}

// renderQRCode encodes data.content (or data.url) as an inline PNG
func (r *HTMLRenderer) renderQRCode(data map[string]any) (string, error) {
	content := textOr(data["content"], textOr(data["url"], ""))
	if content == "" {
		return "", fmt.Errorf("qrcode requires content or url")
	}

	size := r.QRSize
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("failed to encode qrcode: %w", err)
	}

	return fmt.Sprintf(`<div style="padding: 20px; background: white; border-radius: 8px; text-align: center;"><img src="data:image/png;base64,%s" width="%d" height="%d" alt="%s"></div>`,
		base64.StdEncoding.EncodeToString(png), size, size, esc(content)), nil
}

// tableRows accepts decoded JSON ([]any of []any) or native [][]string
func tableRows(v any) [][]string {
	switch rows := v.(type) {
	case [][]string:
		return rows
	case []any:
		out := make([][]string, 0, len(rows))
		for _, row := range rows {
			cells, ok := row.([]any)
			if !ok {
				continue
			}
			line := make([]string, len(cells))
			for i, cell := range cells {
				line[i] = text(cell)
			}
			out = append(out, line)
		}
		return out
	}
	return nil
}

func timelineMilestones(v any) []milestone {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]milestone, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, milestone{Title: text(m["title"]), Status: text(m["status"])})
	}
	return out
}

func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func textOr(v any, def string) string {
	if s := text(v); s != "" {
		return s
	}
	return def
}

func esc(s string) string {
	return html.EscapeString(s)
}
