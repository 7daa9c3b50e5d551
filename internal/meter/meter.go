// Package meter содержит периодический опрос уровня звука для анимации
package meter

import (
	"context"
	"sync"
	"time"

	"github.com/hazadus/go-boombox/internal/transport"
)

// Значения по умолчанию
const (
	DefaultInterval   = time.Second / 30
	DefaultScaleDepth = 0.3
)

// Source источник уровня звука
type Source interface {
	SampleAudioLevel() transport.Level
}

// Frame один кадр анимации
type Frame struct {
	Bands []float64
	Level float64
	// Scale коэффициент «пульсации» динамиков, не меньше 1
	Scale float64
	At    time.Time
}

// Meter опрашивает источник с заданным интервалом, пока запущен.
// Start и Stop идемпотентны, после Close запуск невозможен.
type Meter struct {
	source     Source
	interval   time.Duration
	scaleDepth float64
	frames     chan Frame

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// New создает измеритель. Неположительный интервал заменяется значением по умолчанию.
func New(source Source, interval time.Duration) *Meter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Meter{
		source:     source,
		interval:   interval,
		scaleDepth: DefaultScaleDepth,
		frames:     make(chan Frame, 1),
	}
}

// Frames возвращает канал кадров. Закрывается после Close.
func (m *Meter) Frames() <-chan Frame {
	return m.frames
}

// Running возвращает true, если опрос запущен
func (m *Meter) Running() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.cancel != nil
}

// Start запускает опрос
func (m *Meter) Start() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed || m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)
}

// Stop останавливает опрос и дожидается завершения горутины
func (m *Meter) Stop() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.stopLocked()
}

func (m *Meter) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

// Close останавливает опрос и закрывает канал кадров
func (m *Meter) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return
	}
	m.stopLocked()
	m.closed = true
	close(m.frames)
}

// Scale переводит уровень [0, 1] в коэффициент масштаба
func (m *Meter) Scale(level float64) float64 {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	return 1 + level*m.scaleDepth
}

func (m *Meter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			level := m.source.SampleAudioLevel()
			frame := Frame{
				Bands: level.Bands,
				Level: level.Mean,
				Scale: m.Scale(level.Mean),
				At:    now,
			}

			select {
			case m.frames <- frame:
			default:
				// Предыдущий кадр еще не прочитан: заменяем его свежим
				select {
				case <-m.frames:
				default:
				}
				select {
				case m.frames <- frame:
				default:
				}
			}
		}
	}
}
