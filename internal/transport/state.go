package transport

import (
	"time"

	"github.com/hazadus/go-boombox/internal/data"
)

// PlaybackState состояние конечного автомата плеера
type PlaybackState int

const (
	// Idle ни один трек еще не загружался
	Idle PlaybackState = iota
	// Loading идет загрузка трека
	Loading
	// Paused трек загружен и стоит на паузе
	Paused
	// Playing трек загружен и воспроизводится
	Playing
)

func (s PlaybackState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Level сводка спектра для анимации
type Level struct {
	Bands []float64
	Peak  float64
	Mean  float64
}

// Empty возвращает true, если анализатор не подключен
func (l Level) Empty() bool {
	return len(l.Bands) == 0
}

// Snapshot неизменяемый снимок состояния плеера для отображения
type Snapshot struct {
	Index     int
	Count     int
	Track     data.Track
	State     PlaybackState
	IsPlaying bool
	Volume    float64
	Position  time.Duration
	Duration  time.Duration
	Level     Level
	// Err ошибка последнего перехода. Сбрасывается следующим переходом.
	Err error
}

// EventKind тип события наблюдателя
type EventKind string

// Типы событий
const (
	EventLoading EventKind = "loading"
	EventLoaded  EventKind = "loaded"
	EventPlaying EventKind = "playing"
	EventPaused  EventKind = "paused"
	EventVolume  EventKind = "volume"
	EventEnded   EventKind = "ended"
	EventError   EventKind = "error"
)

// Event отправляется наблюдателю после каждого перехода
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Err      error
	At       time.Time
}

func levelFromBands(bands []float64) Level {
	if len(bands) == 0 {
		return Level{}
	}

	var peak, sum float64
	for _, v := range bands {
		if v > peak {
			peak = v
		}
		sum += v
	}
	return Level{
		Bands: bands,
		Peak:  peak,
		Mean:  sum / float64(len(bands)),
	}
}
