package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hazadus/go-boombox/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive boombox",
		Long:  `Launch the interactive terminal boombox with speakers, spectrum and playlist screens.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}
}

func (app *Application) launchTUI(ctx context.Context) error {
	controller, finished := app.newController()
	defer controller.Close()

	interval := time.Second / time.Duration(app.Config.FrameRate)
	tuiApp := tui.NewApp(controller, finished, interval)

	err := tuiApp.Run(ctx)
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Выход по сигналу не считается ошибкой
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка TUI: %w", err)
	}
	return nil
}
