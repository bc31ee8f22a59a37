package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Span 表示一段文本及其样式。
type Span struct {
	Text  string
	Style lipgloss.Style
}

// Line 由多个 Span 组成。
type Line struct {
	Spans []Span
}

// Plain 构造无样式的单行。
func Plain(text string) Line {
	return Line{Spans: []Span{{Text: text}}}
}

// Styled 构造单一样式的单行。
func Styled(text string, style lipgloss.Style) Line {
	return Line{Spans: []Span{{Text: text, Style: style}}}
}

// Text 返回去除样式后的文本。
func (l Line) Text() string {
	var b strings.Builder
	for _, sp := range l.Spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// Width 返回终端显示宽度，宽字符按 2 计。
func (l Line) Width() int {
	return runewidth.StringWidth(l.Text())
}

// LinesToStrings 将样式化的行转换为字符串列表。
func LinesToStrings(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		segments := make([]string, 0, len(line.Spans))
		for _, sp := range line.Spans {
			segments = append(segments, sp.Style.Render(sp.Text))
		}
		out = append(out, strings.Join(segments, ""))
	}
	return out
}

// PrefixLines 为首行/续行添加前缀。
func PrefixLines(lines []Line, initial Span, subsequent Span) []Line {
	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		spans := make([]Span, 0, len(l.Spans)+1)
		if i == 0 {
			spans = append(spans, initial)
		} else {
			spans = append(spans, subsequent)
		}
		spans = append(spans, l.Spans...)
		out = append(out, Line{Spans: spans})
	}
	return out
}

// Truncate 按显示宽度截断，超出时以 … 结尾。
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// PadRight 按显示宽度补齐空格。
func PadRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// MaxWidth 返回一组字符串中的最大显示宽度。
func MaxWidth(texts ...string) int {
	w := 0
	for _, t := range texts {
		if tw := runewidth.StringWidth(t); tw > w {
			w = tw
		}
	}
	return w
}
