package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram 创建查看器程序；ctx 取消时程序退出。
func NewProgram(ctx context.Context, opts Options) (*tea.Program, *Model) {
	m := New(opts)
	programOptions := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithMouseCellMotion(),
	}
	if opts.AltScreen {
		programOptions = append(programOptions, tea.WithAltScreen())
	}
	return tea.NewProgram(m, programOptions...), m
}

// Run 运行程序直到用户退出或 ctx 取消，外部取消不视为错误。
func Run(ctx context.Context, program *tea.Program) error {
	_, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
