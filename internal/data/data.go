// Package data содержит модель плейлиста бумбокса
package data

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyPlaylist возвращается при попытке создать плейлист без треков
var ErrEmptyPlaylist = errors.New("плейлист не может быть пустым")

// Track описывает один трек плейлиста. После создания не изменяется.
type Track struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Playlist упорядоченный непустой список треков
type Playlist struct {
	tracks []Track
}

type playlistFile struct {
	Tracks []Track `yaml:"tracks"`
}

// DefaultTracks треки, которые используются, если плейлист не задан
func DefaultTracks() []Track {
	return []Track{
		{Title: "116", URL: "/audio/116.mp3"},
		{Title: "Defeat", URL: "/audio/defeat.mp3"},
	}
}

// NewPlaylist создает плейлист из списка треков
func NewPlaylist(tracks []Track) (*Playlist, error) {
	if len(tracks) == 0 {
		return nil, ErrEmptyPlaylist
	}

	copied := make([]Track, 0, len(tracks))
	for i, t := range tracks {
		if strings.TrimSpace(t.URL) == "" {
			return nil, fmt.Errorf("у трека #%d отсутствует URL", i)
		}
		// Если название не задано, берем его из имени файла
		if strings.TrimSpace(t.Title) == "" {
			t.Title = TitleFromURL(t.URL)
		}
		copied = append(copied, t)
	}

	return &Playlist{tracks: copied}, nil
}

// LoadPlaylist загружает плейлист из YAML файла
func LoadPlaylist(filePath string) (*Playlist, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	p := strings.Replace(filePath, "~", home, 1)

	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения плейлиста: %w", err)
	}

	var file playlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора плейлиста: %w", err)
	}

	return NewPlaylist(file.Tracks)
}

// Len возвращает количество треков
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Wrap приводит произвольный индекс к диапазону [0, Len-1]
func (p *Playlist) Wrap(index int) int {
	n := len(p.tracks)
	return ((index % n) + n) % n
}

// At возвращает трек по индексу с учетом заворачивания
func (p *Playlist) At(index int) Track {
	return p.tracks[p.Wrap(index)]
}

// Tracks возвращает копию списка треков
func (p *Playlist) Tracks() []Track {
	out := make([]Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// TitleFromURL извлекает название трека из URL или пути к файлу
func TitleFromURL(rawURL string) string {
	name := rawURL
	// Убираем параметры запроса
	if idx := strings.IndexAny(name, "?#"); idx != -1 {
		name = name[:idx]
	}
	name = path.Base(strings.TrimRight(name, "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == "/" || strings.HasSuffix(name, ":") {
		return "online_track"
	}
	return name
}
