package tui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"brane-view/internal/i18n"
	"brane-view/internal/invocation"
	"brane-view/internal/logger"
	"brane-view/internal/tui/render"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var log = logger.Named("tui")

// Options 配置调用查看界面。
type Options struct {
	Language string
	// Title 显示在标题栏，通常是调用 UUID 或数据源名称。
	Title     string
	AltScreen bool
	// Copy 写入剪贴板，默认使用系统剪贴板。
	Copy  func(string) error
	Clock func() time.Time
}

// paintMsg 携带一次绘制；Update 应用后关闭 done。
type paintMsg struct {
	displayID string
	model     invocation.Model
	done      chan struct{}
}

type sourceDoneMsg struct {
	err error
}

type copiedMsg struct {
	err error
}

type tab int

const (
	tabOutput tab = iota
	tabInfo
	tabIR
	tabCount
)

// display 保存单个显示 id 的最新模型与界面状态。
type display struct {
	id        string
	model     invocation.Model
	rows      []IRRow
	collapsed map[string]bool
	cursor    int
	paints    int
	timer     *elapsedTimer
}

type keyMap struct {
	Quit        key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	OutputTab   key.Binding
	InfoTab     key.Binding
	IRTab       key.Binding
	NextDisplay key.Binding
	PrevDisplay key.Binding
	Copy        key.Binding
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Filter      key.Binding
	Raw         key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c")),
		NextTab:     key.NewBinding(key.WithKeys("tab")),
		PrevTab:     key.NewBinding(key.WithKeys("shift+tab")),
		OutputTab:   key.NewBinding(key.WithKeys("1")),
		InfoTab:     key.NewBinding(key.WithKeys("2")),
		IRTab:       key.NewBinding(key.WithKeys("3")),
		NextDisplay: key.NewBinding(key.WithKeys("]")),
		PrevDisplay: key.NewBinding(key.WithKeys("[")),
		Copy:        key.NewBinding(key.WithKeys("y")),
		Up:          key.NewBinding(key.WithKeys("up", "k")),
		Down:        key.NewBinding(key.WithKeys("down", "j")),
		Toggle:      key.NewBinding(key.WithKeys("enter", " ")),
		Filter:      key.NewBinding(key.WithKeys("/")),
		Raw:         key.NewBinding(key.WithKeys("r")),
		PageUp:      key.NewBinding(key.WithKeys("pgup")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown")),
	}
}

// Model 是调用查看器的 Bubble Tea 模型。每个显示 id 一个条目，
// 当前条目按 Output / Information / IR 三个标签页展示。
type Model struct {
	title  string
	labels i18n.Labels
	keys   keyMap
	copy   func(string) error
	clock  func() time.Time

	spin      spinner.Model
	pane      render.Pane
	filter    textinput.Model
	filtering bool
	raw       bool

	displays []*display
	byID     map[string]*display
	active   int
	tab      tab

	width  int
	height int
	note   string
	err    error
	ended  bool
}

func New(opts Options) *Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	labels := i18n.Normalize(opts.Language).Labels()
	fi := textinput.New()
	fi.Prompt = labels.Filter + ": "
	fi.CharLimit = 256

	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	m := &Model{
		title:  opts.Title,
		labels: labels,
		keys:   defaultKeyMap(),
		copy:   copyFn,
		clock:  clock,
		spin:   spin,
		pane:   render.NewPane(90, 12),
		filter: fi,
		byID:   map[string]*display{},
		width:  90,
		height: 24,
	}
	m.layout()
	m.refresh(true)
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh(false)
		return m, nil
	case paintMsg:
		m.apply(msg.displayID, msg.model)
		if msg.done != nil {
			close(msg.done)
		}
		return m, nil
	case sourceDoneMsg:
		m.ended = true
		m.err = msg.err
		return m, nil
	case copiedMsg:
		if msg.err != nil {
			m.note = ""
			m.err = msg.err
			log.Warnf("copy output: %v", msg.err)
			return m, nil
		}
		m.note = m.labels.Copied
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if d := m.current(); d != nil && d.model.InProgress && m.tab == tabOutput {
			m.refresh(false)
		}
		return m, cmd
	case tea.MouseMsg:
		return m, m.pane.HandleUpdate(msg)
	case tea.KeyMsg:
		if m.filtering {
			return m, m.updateFilter(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.note = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.setTab((m.tab + 1) % tabCount)
	case key.Matches(msg, m.keys.PrevTab):
		m.setTab((m.tab + tabCount - 1) % tabCount)
	case key.Matches(msg, m.keys.OutputTab):
		m.setTab(tabOutput)
	case key.Matches(msg, m.keys.InfoTab):
		m.setTab(tabInfo)
	case key.Matches(msg, m.keys.IRTab):
		m.setTab(tabIR)
	case key.Matches(msg, m.keys.NextDisplay):
		m.cycleDisplay(1)
	case key.Matches(msg, m.keys.PrevDisplay):
		m.cycleDisplay(-1)
	case key.Matches(msg, m.keys.Copy):
		return m.copyOutput()
	case key.Matches(msg, m.keys.PageUp):
		m.pane.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.pane.ViewDown()
	case m.tab == tabIR:
		return m.handleIRKey(msg)
	case key.Matches(msg, m.keys.Up):
		m.pane.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.pane.LineDown(1)
	}
	return nil
}

func (m *Model) handleIRKey(msg tea.KeyMsg) tea.Cmd {
	d := m.current()
	if d == nil {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Raw):
		m.raw = !m.raw
		m.layout()
		m.refresh(true)
	case m.raw:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.pane.LineUp(1)
		case key.Matches(msg, m.keys.Down):
			m.pane.LineDown(1)
		}
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.layout()
		return m.filter.Focus()
	case key.Matches(msg, m.keys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
		m.refresh(false)
	case key.Matches(msg, m.keys.Down):
		if d.cursor < len(m.irIndexes(d))-1 {
			d.cursor++
		}
		m.refresh(false)
	case key.Matches(msg, m.keys.Toggle):
		m.toggle(d)
	}
	return nil
}

// updateFilter 处理过滤输入：enter 保留查询，esc 清空并退出。
func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		m.layout()
		m.refresh(false)
		return nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.layout()
		m.resetCursor()
		m.refresh(true)
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.resetCursor()
	m.refresh(true)
	return cmd
}

func (m *Model) apply(id string, model invocation.Model) {
	now := m.clock()
	d, ok := m.byID[id]
	if !ok {
		d = &display{id: id, collapsed: map[string]bool{}, timer: newElapsedTimer(now)}
		m.byID[id] = d
		m.displays = append(m.displays, d)
		m.active = len(m.displays) - 1
		m.raw = false
	}
	if !ok || !bytes.Equal(d.model.Instructions, model.Instructions) {
		d.rows = FlattenIR(model.Instructions)
		if n := len(m.irIndexes(d)); d.cursor >= n {
			d.cursor = max(0, n-1)
		}
	}
	d.model = model
	d.paints++
	d.timer.sync(now, !invocation.Status(model.Info.Status).Terminal())
	m.refresh(!ok)
}

func (m *Model) current() *display {
	if len(m.displays) == 0 {
		return nil
	}
	return m.displays[m.active]
}

func (m *Model) setTab(t tab) {
	if t == m.tab {
		return
	}
	m.tab = t
	m.layout()
	m.refresh(true)
}

func (m *Model) cycleDisplay(step int) {
	n := len(m.displays)
	if n < 2 {
		return
	}
	m.active = (m.active + step + n) % n
	m.raw = false
	m.refresh(true)
}

func (m *Model) copyOutput() tea.Cmd {
	d := m.current()
	if d == nil || d.model.InProgress {
		return nil
	}
	text, copyFn := d.model.FormattedOutput, m.copy
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}

func (m *Model) toggle(d *display) {
	if strings.TrimSpace(m.filter.Value()) != "" {
		return
	}
	idx := m.irIndexes(d)
	if d.cursor >= len(idx) {
		return
	}
	row := d.rows[idx[d.cursor]]
	if !row.Container {
		return
	}
	d.collapsed[row.Path] = !d.collapsed[row.Path]
	m.refresh(false)
}

func (m *Model) resetCursor() {
	if d := m.current(); d != nil {
		d.cursor = 0
	}
}

// irIndexes 返回 IR 标签页当前可见的行：有查询时为模糊匹配结果，否则按折叠状态过滤。
func (m *Model) irIndexes(d *display) []int {
	if q := m.filter.Value(); strings.TrimSpace(q) != "" {
		matches := FilterRows(d.rows, q)
		out := make([]int, 0, len(matches))
		for _, match := range matches {
			out = append(out, match.Index)
		}
		return out
	}
	return VisibleRows(d.rows, d.collapsed)
}

// layout 根据窗口尺寸计算面板大小。
func (m *Model) layout() {
	// 标题、标签栏、状态行、提示行各占一行，面板边框占两行。
	chrome := 6
	if m.showFilter() {
		chrome++
	}
	m.pane.Resize(max(10, m.width-4), max(1, m.height-chrome))
	m.filter.Width = max(10, m.width-runewidth.StringWidth(m.filter.Prompt)-2)
}

func (m *Model) showFilter() bool {
	return m.tab == tabIR && !m.raw && (m.filtering || m.filter.Value() != "")
}

func (m *Model) refresh(resetTop bool) {
	lines, cursorLine := m.bodyLines()
	m.pane.SetLines(lines, resetTop)
	if cursorLine >= 0 {
		m.pane.EnsureVisible(cursorLine)
	}
}

// bodyLines 生成当前标签页内容；IR 树视图同时返回光标所在行。
func (m *Model) bodyLines() ([]string, int) {
	d := m.current()
	if d == nil {
		return []string{faintStyle.Render(m.labels.Waiting)}, -1
	}
	width := m.pane.Width
	switch m.tab {
	case tabInfo:
		return infoLines(m.labels, d.model.Info), -1
	case tabIR:
		if m.raw {
			return RawIR(d.model.Instructions, true), -1
		}
		return m.irLines(d, width)
	default:
		if d.model.InProgress {
			return []string{m.spin.View() + " " + m.labels.Running}, -1
		}
		if d.model.FormattedOutput == "" {
			return []string{faintStyle.Render(m.labels.NoOutput)}, -1
		}
		return render.WrapText(d.model.FormattedOutput, width), -1
	}
}

var (
	cursorStyle    = lipgloss.NewStyle().Reverse(true)
	containerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
)

func (m *Model) irLines(d *display, width int) ([]string, int) {
	idx := m.irIndexes(d)
	if len(idx) == 0 {
		return []string{faintStyle.Render(m.labels.NoOutput)}, -1
	}
	searching := strings.TrimSpace(m.filter.Value()) != ""
	lines := make([]string, 0, len(idx))
	for i, rowIdx := range idx {
		row := d.rows[rowIdx]
		text := irRowText(row, d.collapsed[row.Path], searching)
		text = render.Truncate(text, width)
		switch {
		case i == d.cursor:
			text = cursorStyle.Render(text)
		case row.Container:
			text = containerStyle.Render(text)
		}
		lines = append(lines, text)
	}
	return lines, d.cursor
}

// irRowText 渲染一行 IR：缩进 + 折叠标记 + key + 标签。过滤时显示完整路径。
func irRowText(row IRRow, collapsed, searching bool) string {
	name := row.Key
	indent := strings.Repeat("  ", row.Depth)
	if searching {
		name = row.Path
		indent = ""
	}
	if !row.Container {
		return fmt.Sprintf("%s  %s: %s", indent, name, row.Label)
	}
	marker := "▾"
	if collapsed {
		marker = "▸"
	}
	return fmt.Sprintf("%s%s %s: %s", indent, marker, name, row.Label)
}

func infoLines(labels i18n.Labels, info invocation.Info) []string {
	rows := [][2]string{
		{labels.Status, strings.ToUpper(info.Status)},
		{labels.Created, info.Created},
		{labels.Started, info.Started},
		{labels.Stopped, info.Stopped},
	}
	width := render.MaxWidth(labels.Status, labels.Created, labels.Started, labels.Stopped)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		label := labelStyle.Render(render.PadRight(r[0], width))
		value := r[1]
		if value == "" {
			value = "-"
		}
		out = append(out, label+"  "+value)
	}
	return out
}

func (m *Model) View() string {
	header := m.renderHeader()
	tabs := m.renderTabs()
	body := m.pane.View()
	if m.showFilter() {
		body = lipgloss.JoinVertical(lipgloss.Left, m.filter.View(), body)
	}
	pane := paneStyle.Width(max(10, m.width-2)).Render(body)
	status := m.renderStatus()
	hints := hintStyle.Width(max(20, m.width)).Render(render.Truncate(m.labels.Hints, max(1, m.width-2)))
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, pane, status, hints)
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7A85")).Padding(0, 1)
	paneStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5E6472")).Padding(0, 1)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7A85")).Padding(0, 1)
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F85149"))
)

func (m *Model) renderHeader() string {
	parts := []string{titleStyle.Render("brane-view")}
	if m.title != "" {
		parts = append(parts, m.title)
	}
	if d := m.current(); d != nil {
		parts = append(parts, fmt.Sprintf("[%d/%d] %s", m.active+1, len(m.displays), d.id))
	}
	return render.Truncate(strings.Join(parts, " • "), max(1, m.width))
}

func (m *Model) renderTabs() string {
	names := []string{m.labels.Output, m.labels.Information, m.labels.IR}
	out := make([]string, 0, len(names))
	for i, name := range names {
		if tab(i) == m.tab {
			out = append(out, activeTabStyle.Render(name))
			continue
		}
		out = append(out, tabStyle.Render(name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m *Model) renderStatus() string {
	d := m.current()
	if d == nil {
		if m.err != nil {
			return errStyle.Render(render.Truncate(fmt.Sprintf("error: %v", m.err), max(1, m.width)))
		}
		return ""
	}
	note := m.note
	switch {
	case m.err != nil:
		note = fmt.Sprintf("error: %v", m.err)
	case note == "" && m.ended:
		note = m.labels.Ended
	}
	elapsed := d.timer.elapsedAt(m.clock())
	spans := statusSpans(m.spin.View(), d.model.Info.Status, elapsed, d.model.InProgress, note)
	line := render.Line{Spans: clampSpans(spans, max(1, m.width))}
	return render.LinesToStrings([]render.Line{line})[0]
}
