// Package app содержит основную логику TUI приложения
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-boombox/internal/meter"
	"github.com/hazadus/go-boombox/internal/tui/boombox"
	"github.com/hazadus/go-boombox/internal/tui/playlist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// BoomboxScreen - экран бумбокса
	BoomboxScreen ScreenType = iota
	// PlaylistScreen - экран плейлиста
	PlaylistScreen
)

// MainModel представляет главную модель TUI
type MainModel struct {
	currentScreen ScreenType
	boomboxModel  *boombox.Model
	playlistModel *playlist.Model
	meter         *meter.Meter
}

// NewMainModel создает новую главную модель
func NewMainModel(ctx context.Context, controller boombox.Controller, m *meter.Meter, finished <-chan uint64) *MainModel {
	return &MainModel{
		currentScreen: BoomboxScreen,
		boomboxModel:  boombox.NewModel(ctx, controller, m, finished),
		playlistModel: playlist.NewModel(controller.Playlist()),
		meter:         m,
	}
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	return m.boomboxModel.Init()
}

// CurrentScreen возвращает активный экран
func (m *MainModel) CurrentScreen() ScreenType {
	return m.currentScreen
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case boombox.ShowPlaylistMsg:
		m.currentScreen = PlaylistScreen
		m.playlistModel.SetCurrent(m.boomboxModel.Snapshot().Index)
		return m, m.boomboxModel.SetMounted(false)

	case playlist.GoBackMsg:
		m.currentScreen = BoomboxScreen
		return m, m.boomboxModel.SetMounted(true)

	case playlist.PlayIndexMsg:
		m.currentScreen = BoomboxScreen
		return m, tea.Batch(
			m.boomboxModel.SetMounted(true),
			m.boomboxModel.PlayIndex(msg.Index),
		)

	case tea.WindowSizeMsg:
		// Размеры нужны обоим экранам
		var boomboxCmd, playlistCmd tea.Cmd
		m.boomboxModel, boomboxCmd = m.boomboxModel.Update(msg)
		m.playlistModel, playlistCmd = m.playlistModel.Update(msg)
		return m, tea.Batch(boomboxCmd, playlistCmd)
	}

	// Клавиши получает активный экран, остальные сообщения обслуживает бумбокс
	if _, isKey := msg.(tea.KeyMsg); isKey && m.currentScreen == PlaylistScreen {
		m.playlistModel, cmd = m.playlistModel.Update(msg)
		return m, cmd
	}
	if m.currentScreen == PlaylistScreen {
		// Сообщения списка (фильтрация) тоже нужны плейлисту
		var playlistCmd tea.Cmd
		m.playlistModel, playlistCmd = m.playlistModel.Update(msg)
		m.boomboxModel, cmd = m.boomboxModel.Update(msg)
		return m, tea.Batch(cmd, playlistCmd)
	}

	m.boomboxModel, cmd = m.boomboxModel.Update(msg)
	return m, cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case BoomboxScreen:
		return m.boomboxModel.View()
	case PlaylistScreen:
		return m.playlistModel.View()
	default:
		return "Неизвестный экран"
	}
}

// Close закрывает ресурсы главной модели
func (m *MainModel) Close() {
	if m.meter != nil {
		m.meter.Close()
	}
}
