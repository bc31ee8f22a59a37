package render

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Pane 包装 bubbles viewport，内容未变化时跳过 SetContent。
type Pane struct {
	viewport.Model
	lastLines []string
}

// NewPane 创建指定尺寸的滚动面板。
func NewPane(width, height int) Pane {
	return Pane{Model: viewport.New(width, height)}
}

// Resize 更新宽高；宽度变化会让下一次 SetLines 全量刷新。
func (p *Pane) Resize(width, height int) {
	if p == nil {
		return
	}
	if p.Width != width {
		p.lastLines = nil
	}
	p.Width = width
	p.Height = height
}

// HandleUpdate 代理 bubbles 的 Update，处理鼠标滚轮与翻页键。
func (p *Pane) HandleUpdate(msg tea.Msg) tea.Cmd {
	if p == nil {
		return nil
	}
	var cmd tea.Cmd
	p.Model, cmd = p.Model.Update(msg)
	return cmd
}

// SetLines 更新内容。resetTop 为 true 时回到顶部（切换标签页或调用时使用），
// 否则保持当前滚动位置。
func (p *Pane) SetLines(lines []string, resetTop bool) {
	if p == nil {
		return
	}
	if !slices.Equal(lines, p.lastLines) {
		p.lastLines = append([]string(nil), lines...)
		p.SetContent(strings.Join(lines, "\n"))
	}
	if resetTop {
		p.GotoTop()
	}
}

// EnsureVisible 滚动到使第 line 行可见的位置。
func (p *Pane) EnsureVisible(line int) {
	if p == nil || p.Height <= 0 {
		return
	}
	switch {
	case line < p.YOffset:
		p.SetYOffset(line)
	case line >= p.YOffset+p.Height:
		p.SetYOffset(line - p.Height + 1)
	}
}
