// Package plain 提供无交互的文本输出，用于 --plain 或 stdout 不是终端的场景。
package plain

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"brane-view/internal/i18n"
	"brane-view/internal/invocation"
	"brane-view/internal/logger"
	"brane-view/internal/render"
	textrender "brane-view/internal/tui/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/tidwall/gjson"
)

var log = logger.Named("plain")

const defaultWidth = 80

// Writer 将每次绘制写成一个文本块。Paint 同步完成。
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	labels i18n.Labels
	width  int

	header lipgloss.Style
	label  lipgloss.Style
	faint  lipgloss.Style
}

var _ render.Surface = (*Writer)(nil)

// New 创建写入 out 的输出面；width <= 0 时使用 80 列。
func New(out io.Writer, lang i18n.Language, width int) *Writer {
	if width <= 0 {
		width = defaultWidth
	}
	r := lipgloss.NewRenderer(out)
	return &Writer{
		out:    out,
		labels: lang.Labels(),
		width:  width,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		label:  r.NewStyle().Bold(true),
		faint:  r.NewStyle().Faint(true),
	}
}

func (w *Writer) Paint(displayID string, model invocation.Model) <-chan struct{} {
	block := w.Block(displayID, model)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.out, block); err != nil {
		log.WithField("display", displayID).Warnf("write block: %v", err)
	}
	return render.Done()
}

// Block 返回一次绘制的完整文本：标题线、信息表、输出与 IR 摘要。
func (w *Writer) Block(displayID string, model invocation.Model) string {
	var b strings.Builder
	b.WriteString(w.header.Render(rule(displayID, w.width)))
	b.WriteByte('\n')

	rows := [][2]string{
		{w.labels.Status, strings.ToUpper(model.Info.Status)},
		{w.labels.Created, model.Info.Created},
		{w.labels.Started, model.Info.Started},
		{w.labels.Stopped, model.Info.Stopped},
	}
	labelWidth := textrender.MaxWidth(w.labels.Status, w.labels.Created, w.labels.Started, w.labels.Stopped)
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s  %s\n", w.label.Render(textrender.PadRight(r[0], labelWidth)), r[1])
	}

	b.WriteString(w.label.Render(w.labels.Output))
	b.WriteString(":\n")
	for _, line := range textrender.LinesToStrings(w.outputLines(model)) {
		b.WriteString(line + "\n")
	}

	if summary := irSummary(model.Instructions); summary != "" {
		b.WriteString(w.label.Render(w.labels.IR))
		b.WriteString(": ")
		b.WriteString(runewidth.Truncate(summary, max(1, w.width-runewidth.StringWidth(w.labels.IR)-2), "…"))
		b.WriteByte('\n')
	}
	return b.String()
}

// outputLines 缩进两格的输出区；进行中或无输出时为一行淡色提示。
func (w *Writer) outputLines(model invocation.Model) []textrender.Line {
	var lines []textrender.Line
	switch {
	case model.InProgress:
		lines = []textrender.Line{textrender.Styled(w.labels.Running+"…", w.faint)}
	case model.FormattedOutput == "":
		lines = []textrender.Line{textrender.Styled(w.labels.NoOutput, w.faint)}
	default:
		for _, text := range strings.Split(strings.TrimRight(model.FormattedOutput, "\n"), "\n") {
			lines = append(lines, textrender.Plain(text))
		}
	}
	indent := textrender.Span{Text: "  "}
	return textrender.PrefixLines(lines, indent, indent)
}

func rule(title string, width int) string {
	head := "── " + title + " "
	n := width - runewidth.StringWidth(head)
	if n < 3 {
		n = 3
	}
	return head + strings.Repeat("─", n)
}

// irSummary 列出 IR 顶层字段及其类型，例如 "graph[3] table{2}"。
func irSummary(raw []byte) string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return ""
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() && !root.IsArray() {
		return root.Raw
	}
	var parts []string
	i := 0
	root.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		if root.IsArray() {
			name = fmt.Sprint(i)
		}
		i++
		switch {
		case v.IsArray():
			parts = append(parts, fmt.Sprintf("%s[%d]", name, len(v.Array())))
		case v.IsObject():
			n := 0
			v.ForEach(func(_, _ gjson.Result) bool { n++; return true })
			parts = append(parts, fmt.Sprintf("%s{%d}", name, n))
		default:
			parts = append(parts, name+"="+v.Raw)
		}
		return true
	})
	return strings.Join(parts, " ")
}
