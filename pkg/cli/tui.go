package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color scheme shared by the tvpilot terminal tools.
type Theme struct {
	Primary lipgloss.Color // titles, labels, borders
	Alert   lipgloss.Color // offline and error accents
	Dim     lipgloss.Color // help and secondary text
}

// DefaultTheme is the default green-on-dark theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Alert:   lipgloss.Color("#ff5f87"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Alert  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Alert:  lipgloss.NewStyle().Bold(true).Foreground(t.Alert),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Section is one labeled pane of a Frame. Content is called on every
// render so live views stay current.
type Section struct {
	Label   string
	Content func() []string
}

// Frame renders a full-terminal box with a title row, labeled sections,
// and a help line. Render is pure; callers redraw on their own cadence.
type Frame struct {
	Styles   Styles
	Title    string
	Status   string
	Alert    bool // render Status in the alert color
	Sections []Section
	Help     string
}

// Render draws the frame at the given terminal size.
func (f Frame) Render(width, height int) string {
	if width < 8 || height < 6 {
		return "..."
	}

	bc := f.Styles.Border
	contentWidth := width - 4

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	statusStyle := f.Styles.Help
	if f.Alert {
		statusStyle = f.Styles.Alert
	}
	title := f.Styles.Title.Render(f.Title)
	status := statusStyle.Render("[" + f.Status + "]")
	pad := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+strings.Repeat(" ", pad)+status+" "+bc.Render("│"))
	lines = append(lines, bc.Render("│")+strings.Repeat(" ", width-2)+bc.Render("│"))

	// Remaining rows split evenly across the sections, one label row each.
	sections := len(f.Sections)
	if sections == 0 {
		sections = 1
	}
	rows := max((height-5-sections)/sections, 2)

	for _, sec := range f.Sections {
		lines = append(lines, f.renderSection(sec, rows, width, contentWidth)...)
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	lines = append(lines, f.Styles.Help.Render(f.Help))
	return strings.Join(lines, "\n")
}

// renderSection draws a label separator row followed by the last rows of
// the section content, padded or truncated to the frame width.
func (f Frame) renderSection(sec Section, rows, width, contentWidth int) []string {
	bc := f.Styles.Border

	label := f.Styles.Label.Render(sec.Label)
	pad := max(0, width-3-lipgloss.Width(label))
	lines := []string{bc.Render("├─") + label + bc.Render(strings.Repeat("─", pad)+"┤")}

	content := sec.Content()
	start := max(0, len(content)-rows)
	for i := 0; i < rows; i++ {
		text := ""
		if idx := start + i; idx < len(content) {
			text = content[idx]
		}
		if contentWidth > 1 && lipgloss.Width(text) > contentWidth {
			text = truncate(text, contentWidth-1) + "…"
		}
		fill := strings.Repeat(" ", max(0, contentWidth-lipgloss.Width(text)))
		lines = append(lines, bc.Render("│")+" "+text+fill+" "+bc.Render("│"))
	}
	return lines
}

// truncate cuts a string to the given display width without splitting a
// multi-cell rune.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	used := 0
	for i, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width {
			return s[:i]
		}
		used += w
	}
	return s
}
