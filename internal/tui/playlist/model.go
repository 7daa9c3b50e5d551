// Package playlist содержит модель экрана плейлиста для TUI
package playlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-boombox/internal/data"
	"github.com/hazadus/go-boombox/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	currentItemStyle  = lipgloss.NewStyle().PaddingLeft(4).Bold(true)
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// PlayIndexMsg отправляется при выборе трека для воспроизведения
type PlayIndexMsg struct {
	Index int
}

// GoBackMsg отправляется для возврата к бумбоксу
type GoBackMsg struct{}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	index int
	track data.Track
}

func (i trackItem) FilterValue() string {
	return i.track.Title
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct {
	current *int
}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	marker := " "
	if d.current != nil && *d.current == i.index {
		marker = "♪"
	}
	str := fmt.Sprintf("%s %-3d %-40s %s",
		marker,
		i.index+1,
		utils.TruncateString(i.track.Title, 40),
		utils.TruncateString(i.track.URL, 40))

	fn := itemStyle.Render
	switch {
	case index == m.Index():
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	case d.current != nil && *d.current == i.index:
		fn = currentItemStyle.Render
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана плейлиста
type Model struct {
	list    list.Model
	current int
}

// NewModel создает модель экрана плейлиста
func NewModel(playlist *data.Playlist) *Model {
	tracks := playlist.Tracks()
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{index: i, track: t}
	}

	m := &Model{}
	l := list.New(items, trackItemDelegate{current: &m.current}, 0, 0)
	l.Title = "Плейлист"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle
	m.list = l

	return m
}

// SetCurrent отмечает текущий трек и выделяет его в списке
func (m *Model) SetCurrent(index int) {
	m.current = index
	if index >= 0 && index < len(m.list.Items()) {
		m.list.Select(index)
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4) // Оставляем место для справки
		return m, nil

	case tea.KeyMsg:
		// Во время фильтрации клавиши принадлежат списку
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "esc", "l":
			return m, func() tea.Msg { return GoBackMsg{} }

		case "enter":
			if item, ok := m.list.SelectedItem().(trackItem); ok {
				index := item.index
				return m, func() tea.Msg { return PlayIndexMsg{Index: index} }
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	view := m.list.View()
	extraHelp := helpStyle.Render("Enter: воспроизвести • esc: назад к бумбоксу")
	return view + "\n" + extraHelp
}
