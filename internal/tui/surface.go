package tui

import (
	"brane-view/internal/invocation"
	"brane-view/internal/render"

	tea "github.com/charmbracelet/bubbletea"
)

// Sender 是 *tea.Program 的最小接口，便于测试替换。
type Sender interface {
	Send(msg tea.Msg)
}

// Surface 将绘制请求转发给运行中的 Bubble Tea 程序。
// 返回的 done 在模型应用该绘制后关闭；程序退出后不会再关闭，
// 调用方需依赖 context 取消。
type Surface struct {
	sender Sender
}

var _ render.Surface = (*Surface)(nil)

func NewSurface(sender Sender) *Surface {
	return &Surface{sender: sender}
}

func (s *Surface) Paint(displayID string, model invocation.Model) <-chan struct{} {
	done := make(chan struct{})
	s.sender.Send(paintMsg{displayID: displayID, model: model, done: done})
	return done
}

// Finish 通知界面数据源已结束；err 非空时显示在状态行。
func (s *Surface) Finish(err error) {
	s.sender.Send(sourceDoneMsg{err: err})
}
