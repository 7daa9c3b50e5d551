package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewPlaylistEmpty(t *testing.T) {
	_, err := NewPlaylist(nil)
	if !errors.Is(err, ErrEmptyPlaylist) {
		t.Fatalf("Ожидалась ошибка ErrEmptyPlaylist, получено: %v", err)
	}
}

func TestNewPlaylistMissingURL(t *testing.T) {
	_, err := NewPlaylist([]Track{{Title: "T1"}})
	if err == nil {
		t.Fatal("Ожидалась ошибка для трека без URL")
	}
}

func TestNewPlaylistFillsTitle(t *testing.T) {
	p, err := NewPlaylist([]Track{{URL: "/audio/defeat.mp3"}})
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if p.At(0).Title != "defeat" {
		t.Errorf("Ожидалось название 'defeat', получено '%s'", p.At(0).Title)
	}
}

func TestWrap(t *testing.T) {
	p, err := NewPlaylist([]Track{{"T1", "u1"}, {"T2", "u2"}, {"T3", "u3"}})
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}

	tests := []struct {
		index    int
		expected int
	}{
		{0, 0},
		{2, 2},
		{3, 0},
		{7, 1},
		{-1, 2},
		{-3, 0},
		{-4, 2},
	}

	for _, test := range tests {
		if got := p.Wrap(test.index); got != test.expected {
			t.Errorf("Wrap(%d) = %d, ожидалось %d", test.index, got, test.expected)
		}
	}

	if p.At(-1).Title != "T3" {
		t.Errorf("At(-1) должен вернуть последний трек, получено %s", p.At(-1).Title)
	}
}

func TestTracksReturnsCopy(t *testing.T) {
	p, _ := NewPlaylist([]Track{{"T1", "u1"}})
	tracks := p.Tracks()
	tracks[0].Title = "changed"

	if p.At(0).Title != "T1" {
		t.Error("Изменение копии не должно влиять на плейлист")
	}
}

func TestDefaultTracks(t *testing.T) {
	p, err := NewPlaylist(DefaultTracks())
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Ожидалось 2 трека, получено %d", p.Len())
	}
	if p.At(1).URL != "/audio/defeat.mp3" {
		t.Errorf("Неожиданный URL второго трека: %s", p.At(1).URL)
	}
}

func TestLoadPlaylist(t *testing.T) {
	tempDir := t.TempDir()
	playlistPath := filepath.Join(tempDir, "playlist.yaml")

	content := `tracks:
  - title: "First"
    url: "https://example.com/first.mp3"
  - url: "/music/second.wav"
`
	if err := os.WriteFile(playlistPath, []byte(content), 0644); err != nil {
		t.Fatalf("Ошибка записи файла: %v", err)
	}

	p, err := LoadPlaylist(playlistPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки плейлиста: %v", err)
	}

	if p.Len() != 2 {
		t.Fatalf("Ожидалось 2 трека, получено %d", p.Len())
	}
	if p.At(0).Title != "First" {
		t.Errorf("Ожидалось название 'First', получено '%s'", p.At(0).Title)
	}
	if p.At(1).Title != "second" {
		t.Errorf("Ожидалось название 'second', получено '%s'", p.At(1).Title)
	}
}

func TestLoadPlaylistEmptyFile(t *testing.T) {
	tempDir := t.TempDir()
	playlistPath := filepath.Join(tempDir, "empty.yaml")
	if err := os.WriteFile(playlistPath, []byte("tracks: []\n"), 0644); err != nil {
		t.Fatalf("Ошибка записи файла: %v", err)
	}

	if _, err := LoadPlaylist(playlistPath); !errors.Is(err, ErrEmptyPlaylist) {
		t.Errorf("Ожидалась ошибка ErrEmptyPlaylist, получено: %v", err)
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/audio/116.mp3", "116"},
		{"https://example.com/music/song.mp3?token=abc", "song"},
		{"s3://bucket/dir/track.flac", "track"},
		{"local.wav", "local"},
	}

	for _, test := range tests {
		if got := TitleFromURL(test.input); got != test.expected {
			t.Errorf("TitleFromURL(%q) = %q, ожидалось %q", test.input, got, test.expected)
		}
	}
}
