// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-boombox/internal/meter"
	"github.com/hazadus/go-boombox/internal/tui/app"
	"github.com/hazadus/go-boombox/internal/tui/boombox"
)

// App представляет основное TUI приложение
type App struct {
	controller    boombox.Controller
	finished      <-chan uint64
	frameInterval time.Duration
}

// NewApp создает новый экземпляр TUI приложения. В finished приходит номер
// доигранного проигрывания, frameInterval задает частоту анимации.
func NewApp(controller boombox.Controller, finished <-chan uint64, frameInterval time.Duration) *App {
	return &App{
		controller:    controller,
		finished:      finished,
		frameInterval: frameInterval,
	}
}

// Run запускает TUI приложение
func (tuiApp *App) Run(ctx context.Context) error {
	m := meter.New(tuiApp.controller, tuiApp.frameInterval)
	model := app.NewMainModel(ctx, tuiApp.controller, m, tuiApp.finished)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	// Останавливаем анимацию после завершения программы
	model.Close()

	return err
}
