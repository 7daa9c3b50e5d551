package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-boombox/internal/engine"
	"github.com/hazadus/go-boombox/internal/transport"
	"github.com/hazadus/go-boombox/internal/tui/boombox"
	"github.com/hazadus/go-boombox/internal/utils"
)

const progressInterval = 500 * time.Millisecond

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [index]",
		Short: "Play the playlist in console mode",
		Long:  `Play the playlist starting from the track number (1-based) with single-key controls.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			index := 0
			if len(args) == 1 {
				var err error
				if index, err = parseTrackNumber(args[0], app.Playlist.Len()); err != nil {
					return err
				}
			}
			return app.playFrom(ctx, index)
		},
	}
}

// parseTrackNumber переводит номер трека из списка в индекс плейлиста
func parseTrackNumber(arg string, count int) (int, error) {
	number, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("неверный номер трека: %s", arg)
	}
	if number < 1 || number > count {
		return 0, fmt.Errorf("трек с номером %d не найден, в плейлисте %d", number, count)
	}
	return number - 1, nil
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readKeys читает одиночные символы без ожидания Enter
func readKeys(keys chan<- byte) {
	buffer := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buffer); err != nil {
			close(keys)
			return
		}
		keys <- buffer[0]
	}
}

func (app *Application) playFrom(ctx context.Context, index int) error {
	controller, finished := app.newController()
	defer controller.Close()

	if err := controller.Load(ctx, index); err != nil {
		return fmt.Errorf("ошибка загрузки трека: %w", err)
	}
	if err := controller.Play(ctx); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	fmt.Printf("📻 Плейлист: %d треков\n", app.Playlist.Len())
	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [n]/[p]  - следующий/предыдущий трек\n")
	fmt.Printf("   [+]/[-]  - громкость\n")
	fmt.Printf("   [q]      - остановить и выйти\n")
	fmt.Println()
	printTrack(controller.Snapshot())

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	keys := make(chan byte)
	go readKeys(keys)

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	current := controller.Snapshot().Index
	for {
		select {
		case <-ticker.C:
			s := controller.Snapshot()
			if s.Index != current {
				current = s.Index
				fmt.Println()
				printTrack(s)
			}
			fmt.Print("\r\033[K" + progressLine(s))

		case playback := <-finished:
			if err := controller.TrackEnded(ctx, playback); err != nil && !errors.Is(err, engine.ErrSuperseded) {
				fmt.Printf("\n❌ %v\n", err)
			}
			if !app.Config.AutoAdvance {
				fmt.Println("\n✅ Воспроизведение завершено")
				return nil
			}

		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if quit := app.handleKey(ctx, controller, key); quit {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}

		case <-ctx.Done():
			fmt.Println("\n🚫 Операция отменена")
			return nil
		}
	}
}

// handleKey выполняет команду по нажатой клавише. Возвращает true для выхода.
func (app *Application) handleKey(ctx context.Context, controller *transport.Controller, key byte) bool {
	var err error
	switch key {
	case ' ', '\n', '\r':
		err = controller.TogglePlayPause(ctx)
	case 'n':
		err = controller.Next(ctx)
	case 'p':
		err = controller.Previous(ctx)
	case '+', '=':
		controller.AdjustVolume(boombox.VolumeStep)
	case '-', '_':
		controller.AdjustVolume(-boombox.VolumeStep)
	case 'q':
		return true
	}

	if err != nil && !errors.Is(err, engine.ErrSuperseded) {
		fmt.Printf("\r\033[K❌ %v\n", err)
	}
	return false
}

func printTrack(s transport.Snapshot) {
	fmt.Printf("🎵 [%d/%d] %s\n", s.Index+1, s.Count, s.Track.Title)
}

// levelWidth ширина индикатора уровня в строке прогресса
const levelWidth = 10

// progressLine строка прогресса воспроизведения
func progressLine(s transport.Snapshot) string {
	var percent string
	if s.Duration > 0 {
		percent = fmt.Sprintf("%.1f%%", float64(s.Position)/float64(s.Duration)*100)
	} else {
		percent = "??%"
	}

	statusIcon := "⏸️"
	switch s.State {
	case transport.Playing:
		statusIcon = "▶️"
	case transport.Loading:
		statusIcon = "⏳"
	}

	line := fmt.Sprintf("%s  %s | %s | Громкость: %3.0f%% | %s",
		statusIcon,
		percent,
		utils.FormatProgress(s.Position, s.Duration),
		s.Volume*100,
		s.State)

	// Без анализатора или на паузе индикатор уровня не выводим
	if !s.Level.Empty() {
		filled := int(math.Round(math.Min(s.Level.Peak, 1) * levelWidth))
		line += " | " + strings.Repeat("▮", filled) + strings.Repeat("▯", levelWidth-filled)
	}
	return line
}
