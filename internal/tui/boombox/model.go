// Package boombox содержит модель главного экрана бумбокса для TUI
package boombox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-boombox/internal/data"
	"github.com/hazadus/go-boombox/internal/engine"
	"github.com/hazadus/go-boombox/internal/meter"
	"github.com/hazadus/go-boombox/internal/transport"
	"github.com/hazadus/go-boombox/internal/utils"
)

// VolumeStep шаг изменения громкости клавишами +/-
const VolumeStep = 0.1

const (
	refreshInterval = 500 * time.Millisecond
	speakerWidth    = 9
	speakerHeight   = 5
	displayWidth    = 34
)

var (
	cabinetStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)

	speakerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#888888")).
			Align(lipgloss.Center, lipgloss.Center)

	displayStyle = lipgloss.NewStyle().
			Width(displayWidth).
			Padding(0, 1).
			Background(lipgloss.Color("#1d2b1d")).
			Foreground(lipgloss.Color("#7CFC00"))

	titleStyle = lipgloss.NewStyle().Bold(true)

	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00d7ff"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

var barGlyphs = []rune("▁▂▃▄▅▆▇█")

// Controller команды контроллера воспроизведения, доступные экрану
type Controller interface {
	Load(ctx context.Context, index int) error
	Play(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	TogglePlayPause(ctx context.Context) error
	AdjustVolume(delta float64)
	TrackEnded(ctx context.Context, playback uint64) error
	SampleAudioLevel() transport.Level
	Snapshot() transport.Snapshot
	Playlist() *data.Playlist
}

// SnapshotMsg результат команды: состояние контроллера после ее выполнения
type SnapshotMsg struct {
	Snapshot transport.Snapshot
	Err      error
}

// ShowPlaylistMsg запрашивает переход к экрану плейлиста
type ShowPlaylistMsg struct{}

// trackEndedMsg окончание проигрывания с номером playback
type trackEndedMsg struct {
	playback uint64
}

type tickMsg time.Time

type frameMsg meter.Frame

// Model представляет модель главного экрана
type Model struct {
	ctx        context.Context
	controller Controller
	meter      *meter.Meter
	finished   <-chan uint64

	keys   keyMap
	help   help.Model
	volume progress.Model

	snapshot  transport.Snapshot
	frame     meter.Frame
	lastErr   error
	mounted   bool
	listening bool
	width     int
}

// NewModel создает модель главного экрана. В finished приходит номер проигрывания
// при естественном окончании трека, канал может быть nil.
func NewModel(ctx context.Context, controller Controller, m *meter.Meter, finished <-chan uint64) *Model {
	vol := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	vol.Width = displayWidth - 10

	return &Model{
		ctx:        ctx,
		controller: controller,
		meter:      m,
		finished:   finished,
		keys:       defaultKeyMap(),
		help:       help.New(),
		volume:     vol,
		snapshot:   controller.Snapshot(),
		frame:      meter.Frame{Scale: 1},
		mounted:    true,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForEnd())
}

// SetMounted сообщает, виден ли экран. Измеритель работает только на видимом экране.
func (m *Model) SetMounted(mounted bool) tea.Cmd {
	m.mounted = mounted
	return m.syncMeter()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		switch {
		case msg.Err != nil && !errors.Is(msg.Err, engine.ErrSuperseded):
			m.lastErr = msg.Err
		case msg.Snapshot.Err != nil:
			m.lastErr = msg.Snapshot.Err
		case msg.Err == nil && msg.Snapshot.State != transport.Idle:
			m.lastErr = nil
		}
		return m, m.syncMeter()

	case tickMsg:
		m.snapshot = m.controller.Snapshot()
		return m, tea.Batch(m.syncMeter(), m.tick())

	case trackEndedMsg:
		playback := msg.playback
		return m, tea.Batch(
			m.run(func(ctx context.Context) error {
				return m.controller.TrackEnded(ctx, playback)
			}),
			m.waitForEnd(),
		)

	case frameMsg:
		// Кадр, снятый до остановки измерителя, не применяем
		if m.meter == nil || !m.meter.Running() {
			m.listening = false
			return m, nil
		}
		m.frame = meter.Frame(msg)
		return m, m.listenForFrames()
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m.run(m.controller.TogglePlayPause)
	case key.Matches(msg, m.keys.Next):
		return m.run(m.controller.Next)
	case key.Matches(msg, m.keys.Previous):
		return m.run(m.controller.Previous)
	case key.Matches(msg, m.keys.VolumeUp):
		return m.adjust(VolumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		return m.adjust(-VolumeStep)
	case key.Matches(msg, m.keys.Playlist):
		return func() tea.Msg { return ShowPlaylistMsg{} }
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	}
	return nil
}

// PlayIndex загружает трек по индексу и запускает его
func (m *Model) PlayIndex(index int) tea.Cmd {
	return m.run(func(ctx context.Context) error {
		if err := m.controller.Load(ctx, index); err != nil {
			return err
		}
		if m.controller.Snapshot().IsPlaying {
			return nil
		}
		return m.controller.Play(ctx)
	})
}

// run выполняет команду контроллера и возвращает снимок состояния
func (m *Model) run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		err := fn(m.ctx)
		return SnapshotMsg{Snapshot: m.controller.Snapshot(), Err: err}
	}
}

func (m *Model) adjust(delta float64) tea.Cmd {
	return func() tea.Msg {
		m.controller.AdjustVolume(delta)
		return SnapshotMsg{Snapshot: m.controller.Snapshot()}
	}
}

// syncMeter запускает измеритель на видимом экране во время воспроизведения
func (m *Model) syncMeter() tea.Cmd {
	if m.meter == nil {
		return nil
	}
	if !m.mounted || !m.snapshot.IsPlaying {
		m.meter.Stop()
		m.frame = meter.Frame{Scale: 1}
		return nil
	}
	m.meter.Start()
	if m.listening {
		return nil
	}
	m.listening = true
	return m.listenForFrames()
}

// listenForFrames ждет очередной кадр измерителя
func (m *Model) listenForFrames() tea.Cmd {
	frames := m.meter.Frames()
	return func() tea.Msg {
		frame, ok := <-frames
		if !ok {
			return nil
		}
		return frameMsg(frame)
	}
}

// waitForEnd ждет сигнала об окончании трека
func (m *Model) waitForEnd() tea.Cmd {
	if m.finished == nil {
		return nil
	}
	finished := m.finished
	return func() tea.Msg {
		playback, ok := <-finished
		if !ok {
			return nil
		}
		return trackEndedMsg{playback: playback}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Snapshot возвращает последнее отображаемое состояние
func (m *Model) Snapshot() transport.Snapshot {
	return m.snapshot
}

// View отображает модель
func (m *Model) View() string {
	body := lipgloss.JoinHorizontal(
		lipgloss.Center,
		m.renderSpeaker(),
		" ",
		m.renderDisplay(),
		" ",
		m.renderSpeaker(),
	)

	var b strings.Builder
	b.WriteString(cabinetStyle.Render(body))
	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Ошибка: " + m.lastErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderSpeaker() string {
	scale := m.frame.Scale
	if scale < 1 {
		scale = 1
	}
	w := int(math.Round(speakerWidth * scale))
	h := int(math.Round(speakerHeight * scale))
	return speakerStyle.Width(w).Height(h).Render("◉")
}

func (m *Model) renderDisplay() string {
	s := m.snapshot

	title := titleStyle.Render(utils.TruncateString(s.Track.Title, displayWidth-2))
	status := fmt.Sprintf("%s %s  [%d/%d]", stateIcon(s), formatState(s), s.Index+1, s.Count)
	position := utils.FormatProgress(s.Position, s.Duration)
	volume := fmt.Sprintf("Гр. %s %3.0f%%", m.volume.ViewAs(s.Volume), s.Volume*100)

	return displayStyle.Render(strings.Join([]string{
		title,
		status,
		position,
		barStyle.Render(renderBars(m.frame.Bands)),
		volume,
	}, "\n"))
}

// renderBars рисует полосы спектра символами разной высоты
func renderBars(bands []float64) string {
	if len(bands) == 0 {
		return strings.Repeat(string(barGlyphs[0]), 16)
	}
	var b strings.Builder
	for _, v := range bands {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		glyph := barGlyphs[int(math.Round(v*float64(len(barGlyphs)-1)))]
		b.WriteRune(glyph)
		b.WriteRune(glyph)
	}
	return b.String()
}

func stateIcon(s transport.Snapshot) string {
	switch s.State {
	case transport.Playing:
		return "▶"
	case transport.Loading:
		return "…"
	case transport.Paused:
		return "⏸"
	default:
		return "■"
	}
}

func formatState(s transport.Snapshot) string {
	switch s.State {
	case transport.Playing:
		return "Воспроизведение"
	case transport.Loading:
		return "Загрузка"
	case transport.Paused:
		return "Пауза"
	default:
		return "Остановлено"
	}
}
