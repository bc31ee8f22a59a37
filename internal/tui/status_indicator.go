package tui

import (
	"fmt"
	"strings"
	"time"

	"brane-view/internal/tui/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// elapsedTimer 记录调用在界面上处于进行中的累计时间；
// 进入终态后暂停，再次变为进行中时继续计时。
type elapsedTimer struct {
	elapsedRunning time.Duration
	lastResumeAt   time.Time
	paused         bool
}

func newElapsedTimer(now time.Time) *elapsedTimer {
	return &elapsedTimer{lastResumeAt: now}
}

// sync 根据 inProgress 暂停或继续计时。
func (w *elapsedTimer) sync(now time.Time, inProgress bool) {
	if inProgress {
		w.resumeAt(now)
		return
	}
	w.pauseAt(now)
}

func (w *elapsedTimer) pauseAt(now time.Time) {
	if w.paused {
		return
	}
	w.elapsedRunning += now.Sub(w.lastResumeAt)
	w.paused = true
}

func (w *elapsedTimer) resumeAt(now time.Time) {
	if !w.paused {
		return
	}
	w.lastResumeAt = now
	w.paused = false
}

func (w *elapsedTimer) elapsedAt(now time.Time) time.Duration {
	if w.paused {
		return w.elapsedRunning
	}
	return w.elapsedRunning + now.Sub(w.lastResumeAt)
}

// fmtElapsedCompact 将秒数格式化为友好字符串。
func fmtElapsedCompact(elapsedSecs uint64) string {
	switch {
	case elapsedSecs < 60:
		return fmt.Sprintf("%ds", elapsedSecs)
	case elapsedSecs < 3600:
		minutes := elapsedSecs / 60
		seconds := elapsedSecs % 60
		return fmt.Sprintf("%dm %02ds", minutes, seconds)
	default:
		hours := elapsedSecs / 3600
		minutes := (elapsedSecs % 3600) / 60
		seconds := elapsedSecs % 60
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
	}
}

var (
	statusStyles = map[string]lipgloss.Style{
		"complete": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950")),
		"error":    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F85149")),
		"stopped":  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB454")),
	}
	runningStatusStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	faintStyle         = lipgloss.NewStyle().Faint(true)
)

func statusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[strings.ToLower(status)]; ok {
		return s
	}
	return runningStatusStyle
}

// statusSpans 绘制状态行：spinner（进行中）+ 大写状态 + 计时 + 提示。
func statusSpans(spinnerFrame, status string, elapsed time.Duration, inProgress bool, note string) []render.Span {
	spans := []render.Span{}
	if inProgress && spinnerFrame != "" {
		spans = append(spans, render.Span{Text: spinnerFrame}, render.Span{Text: " "})
	}
	if status == "" {
		status = "unknown"
	}
	spans = append(spans, render.Span{Text: strings.ToUpper(status), Style: statusStyle(status)})
	spans = append(spans, render.Span{Text: " "}, render.Span{
		Text:  fmt.Sprintf("(%s)", fmtElapsedCompact(uint64(elapsed.Seconds()))),
		Style: faintStyle,
	})
	if note != "" {
		spans = append(spans, render.Span{Text: " • "}, render.Span{Text: note, Style: faintStyle})
	}
	return spans
}

// clampSpans 按显示宽度裁剪 span，超出部分丢弃。
func clampSpans(spans []render.Span, width int) []render.Span {
	if width <= 0 {
		return nil
	}
	remaining := width
	out := make([]render.Span, 0, len(spans))
	for _, sp := range spans {
		if remaining <= 0 {
			break
		}
		tw := runewidth.StringWidth(sp.Text)
		if tw <= remaining {
			out = append(out, sp)
			remaining -= tw
			continue
		}
		text := truncateToWidth(sp.Text, remaining)
		if text != "" {
			sp.Text = text
			out = append(out, sp)
			remaining = 0
		}
	}
	return out
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	w := 0
	out := make([]rune, 0, len(text))
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			break
		}
		out = append(out, r)
		w += rw
	}
	return string(out)
}
