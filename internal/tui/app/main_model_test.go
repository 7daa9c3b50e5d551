package app

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-boombox/internal/data"
	"github.com/hazadus/go-boombox/internal/transport"
	"github.com/hazadus/go-boombox/internal/tui/boombox"
	"github.com/hazadus/go-boombox/internal/tui/playlist"
)

// stubController минимальный контроллер для проверки маршрутизации
type stubController struct {
	mutex    sync.Mutex
	playlist *data.Playlist
	index    int
	playing  bool
}

func (s *stubController) Load(_ context.Context, index int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.index = s.playlist.Wrap(index)
	return nil
}

func (s *stubController) Play(context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.playing = true
	return nil
}

func (s *stubController) Next(context.Context) error            { return nil }
func (s *stubController) Previous(context.Context) error        { return nil }
func (s *stubController) TogglePlayPause(context.Context) error { return nil }
func (s *stubController) AdjustVolume(float64)                  {}
func (s *stubController) TrackEnded(context.Context, uint64) error { return nil }
func (s *stubController) SampleAudioLevel() transport.Level     { return transport.Level{} }
func (s *stubController) Playlist() *data.Playlist              { return s.playlist }

func (s *stubController) Snapshot() transport.Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return transport.Snapshot{
		Index:     s.index,
		Count:     s.playlist.Len(),
		Track:     s.playlist.At(s.index),
		IsPlaying: s.playing,
	}
}

func TestMainModelRouting(t *testing.T) {
	pl, err := data.NewPlaylist(data.DefaultTracks())
	if err != nil {
		t.Fatalf("Ошибка создания плейлиста: %v", err)
	}
	ctrl := &stubController{playlist: pl}
	model := NewMainModel(context.Background(), ctrl, nil, nil)

	if model.CurrentScreen() != BoomboxScreen {
		t.Errorf("Ожидался экран бумбокса, получено %v", model.CurrentScreen())
	}

	updated, _ := model.Update(boombox.ShowPlaylistMsg{})
	model = updated.(*MainModel)
	if model.CurrentScreen() != PlaylistScreen {
		t.Errorf("Ожидался экран плейлиста после ShowPlaylistMsg, получено %v", model.CurrentScreen())
	}

	updated, _ = model.Update(playlist.GoBackMsg{})
	model = updated.(*MainModel)
	if model.CurrentScreen() != BoomboxScreen {
		t.Errorf("Ожидался возврат к бумбоксу, получено %v", model.CurrentScreen())
	}

	model.Update(boombox.ShowPlaylistMsg{})
	updated, cmd := model.Update(playlist.PlayIndexMsg{Index: 1})
	model = updated.(*MainModel)
	if model.CurrentScreen() != BoomboxScreen {
		t.Errorf("После выбора трека ожидался бумбокс, получено %v", model.CurrentScreen())
	}
	if cmd == nil {
		t.Fatal("Выбор трека должен возвращать команду")
	}

	msg, ok := cmd().(boombox.SnapshotMsg)
	if !ok {
		t.Fatal("Ожидался снимок состояния")
	}
	if msg.Snapshot.Index != 1 || !msg.Snapshot.IsPlaying {
		t.Errorf("Ожидалось воспроизведение трека 1, получено %+v", msg.Snapshot)
	}
}

func TestCtrlCQuits(t *testing.T) {
	pl, _ := data.NewPlaylist(data.DefaultTracks())
	model := NewMainModel(context.Background(), &stubController{playlist: pl}, nil, nil)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Ctrl+C должен возвращать команду выхода")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Ожидался tea.QuitMsg")
	}
}
