// Package metadata предоставляет функционал для извлечения метаданных треков плейлиста
package metadata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/go-boombox/internal/data"
	"github.com/hazadus/go-boombox/internal/source"
)

// Info сведения о треке для вывода в списке
type Info struct {
	Artist   string
	Title    string
	Album    string
	Duration time.Duration
	Size     int64
	// Local true, если трек доступен в локальной файловой системе
	Local bool
}

// Extractor извлекает метаданные из локальных аудио файлов
type Extractor struct {
	resolver *source.Resolver
}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor(resolver *source.Resolver) *Extractor {
	if resolver == nil {
		resolver = &source.Resolver{}
	}
	return &Extractor{resolver: resolver}
}

// Describe собирает сведения о треке. Удаленные треки не скачиваются.
func (e *Extractor) Describe(track data.Track) Info {
	info := e.defaultInfo(track)
	if source.IsHTTP(track.URL) || strings.HasPrefix(track.URL, "s3://") {
		return info
	}

	path := e.resolver.LocalPath(track.URL)
	stat, err := os.Stat(path)
	if err != nil {
		return info
	}
	info.Local = true
	info.Size = stat.Size()

	file, err := os.Open(path)
	if err != nil {
		return info
	}
	defer file.Close()

	if m, err := tag.ReadFrom(file); err == nil {
		if m.Artist() != "" {
			info.Artist = m.Artist()
		}
		if m.Album() != "" {
			info.Album = m.Album()
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err == nil {
		if d, err := Duration(file, source.Ext(track.URL)); err == nil {
			info.Duration = d
		}
	}

	return info
}

// Duration декодирует заголовок потока и возвращает длительность
func Duration(r io.ReadCloser, ext string) (time.Duration, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(r)
	case ".flac":
		streamer, format, err = flac.Decode(r)
	default:
		streamer, format, err = mp3.Decode(r)
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка декодирования: %w", err)
	}

	length := streamer.Len()
	if length < 0 {
		length = 0
	}
	return format.SampleRate.D(length), nil
}

// defaultInfo сведения по имени файла в формате "Artist - Title"
func (e *Extractor) defaultInfo(track data.Track) Info {
	name := data.TitleFromURL(track.URL)

	info := Info{Title: track.Title}
	if parts := strings.SplitN(name, " - ", 2); len(parts) == 2 {
		info.Artist = strings.TrimSpace(parts[0])
		// Название, подставленное из имени файла, тоже разбираем
		if info.Title == "" || info.Title == name {
			info.Title = strings.TrimSpace(parts[1])
		}
	}
	if info.Title == "" {
		info.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return info
}
