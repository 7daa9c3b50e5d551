// Package transport содержит контроллер воспроизведения: единственный владелец состояния плеера
package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hazadus/go-boombox/internal/data"
	"github.com/hazadus/go-boombox/internal/engine"
)

// Engine движок воспроизведения, которым управляет контроллер
type Engine interface {
	Load(ctx context.Context, url string) error
	Start(ctx context.Context) error
	Pause()
	Stop()
	SetVolume(level float64)
	AttachAnalyser()
	SampleSpectrum() []float64
	Position() (current, total time.Duration)
	// CurrentPlayback номер текущего проигрывания, 0 если источник не запущен
	CurrentPlayback() uint64
	Close() error
}

// Controller принимает команды пользователя и поддерживает согласованность
// состояния плеера и движка. Вызовы движка выполняются вне мьютекса.
type Controller struct {
	playlist *data.Playlist
	engine   Engine
	logger   *log.Logger

	observers   []func(Event)
	autoAdvance bool

	mutex    sync.Mutex
	state    PlaybackState
	index    int
	playing  bool
	wantPlay bool // намерение играть, которое исполнится после загрузки или запуска
	loaded   bool // движок держит источник для index
	everDone bool // хотя бы одна загрузка завершилась успешно
	volume   float64
	err      error
	loadSeq  uint64
	playback uint64 // номер проигрывания движка, запущенного для loadSeq
}

// Option настраивает контроллер
type Option func(*Controller)

// WithObserver добавляет наблюдателя за переходами состояния
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithLogger задает логгер
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAutoAdvance включает переход к следующему треку после окончания текущего
func WithAutoAdvance(enabled bool) Option {
	return func(c *Controller) { c.autoAdvance = enabled }
}

// WithVolume задает начальную громкость
func WithVolume(level float64) Option {
	return func(c *Controller) { c.volume = engine.ClampVolume(level) }
}

// WithAnalyser подключает анализатор спектра движка
func WithAnalyser() Option {
	return func(c *Controller) { c.engine.AttachAnalyser() }
}

// New создает контроллер над плейлистом и движком
func New(playlist *data.Playlist, eng Engine, opts ...Option) *Controller {
	c := &Controller{
		playlist: playlist,
		engine:   eng,
		logger:   log.New(io.Discard),
		state:    Idle,
		volume:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	eng.SetVolume(c.volume)
	return c
}

// Playlist возвращает плейлист контроллера
func (c *Controller) Playlist() *data.Playlist {
	return c.playlist
}

// Load загружает трек по индексу. Индекс заворачивается по длине плейлиста.
// Если плеер играл, новый трек запускается сразу после загрузки.
func (c *Controller) Load(ctx context.Context, index int) error {
	return c.load(ctx, func(int) int { return index }, false)
}

// Next переходит к следующему треку и запускает его
func (c *Controller) Next(ctx context.Context) error {
	return c.load(ctx, func(current int) int { return current + 1 }, true)
}

// Previous переходит к предыдущему треку и запускает его
func (c *Controller) Previous(ctx context.Context) error {
	return c.load(ctx, func(current int) int { return current - 1 }, true)
}

// load общий путь загрузки. pick выбирает индекс от текущего под мьютексом,
// force включает воспроизведение независимо от прежнего состояния.
func (c *Controller) load(ctx context.Context, pick func(current int) int, force bool) error {
	c.mutex.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.wantPlay = force || c.playing || c.wantPlay
	c.index = c.playlist.Wrap(pick(c.index))
	c.playing = false
	c.loaded = false
	c.playback = 0
	c.state = Loading
	c.err = nil
	track := c.playlist.At(c.index)
	ev := c.eventLocked(EventLoading, nil)
	c.mutex.Unlock()

	c.emit(ev)
	c.logger.Debug("загрузка трека", "index", ev.Snapshot.Index, "title", track.Title)

	err := c.engine.Load(ctx, track.URL)

	c.mutex.Lock()
	if seq != c.loadSeq {
		// Загрузку обогнала более новая: ее результат ни на что не влияет
		c.mutex.Unlock()
		return engine.ErrSuperseded
	}

	if err != nil {
		var loadErr *engine.MediaLoadError
		if !errors.As(err, &loadErr) {
			err = &engine.MediaLoadError{URL: track.URL, Err: err}
		}
		ev := c.failLocked(err)
		c.mutex.Unlock()
		c.emit(ev)
		return err
	}

	c.loaded = true
	c.everDone = true
	c.state = Paused
	start := c.wantPlay
	ev = c.eventLocked(EventLoaded, nil)
	c.mutex.Unlock()
	c.emit(ev)

	if !start {
		return nil
	}
	return c.start(ctx, seq)
}

// Play запускает воспроизведение. Флаг isPlaying выставляется только после
// успешного запуска движка.
func (c *Controller) Play(ctx context.Context) error {
	c.mutex.Lock()
	switch {
	case c.state == Loading:
		// Запуск произойдет по окончании загрузки
		c.wantPlay = true
		c.mutex.Unlock()
		return nil
	case !c.loaded:
		c.mutex.Unlock()
		return c.load(ctx, func(current int) int { return current }, true)
	case c.playing:
		c.mutex.Unlock()
		return nil
	}
	c.wantPlay = true
	c.err = nil
	seq := c.loadSeq
	c.mutex.Unlock()

	return c.start(ctx, seq)
}

// start запускает движок для загрузки seq
func (c *Controller) start(ctx context.Context, seq uint64) error {
	err := c.engine.Start(ctx)
	var playback uint64
	if err == nil {
		playback = c.engine.CurrentPlayback()
	}

	c.mutex.Lock()
	if seq != c.loadSeq {
		// Пока шел запуск, началась новая загрузка
		stale := err == nil && !c.playing
		c.mutex.Unlock()
		if stale {
			c.engine.Pause()
		}
		return engine.ErrSuperseded
	}

	if err != nil {
		var startErr *engine.PlaybackStartError
		if !errors.As(err, &startErr) {
			err = &engine.PlaybackStartError{Err: err}
		}
		ev := c.failLocked(err)
		c.mutex.Unlock()
		c.emit(ev)
		return err
	}

	if !c.wantPlay {
		// Пауза пришла во время запуска
		c.mutex.Unlock()
		c.engine.Pause()
		return nil
	}

	c.playing = true
	c.playback = playback
	c.state = Playing
	ev := c.eventLocked(EventPlaying, nil)
	c.mutex.Unlock()
	c.emit(ev)
	return nil
}

// failLocked переводит автомат в состояние после ошибки (должен вызываться под мьютексом)
func (c *Controller) failLocked(err error) Event {
	c.playing = false
	c.wantPlay = false
	if c.everDone {
		c.state = Paused
	} else {
		c.state = Idle
	}
	c.err = err
	c.logger.Warn("ошибка воспроизведения", "index", c.index, "err", err)
	return c.eventLocked(EventError, err)
}

// Pause ставит воспроизведение на паузу. Если плеер уже на паузе, ничего не делает.
func (c *Controller) Pause() {
	c.mutex.Lock()
	if !c.playing && !c.wantPlay {
		c.mutex.Unlock()
		return
	}
	c.playing = false
	c.wantPlay = false
	if c.state == Playing {
		c.state = Paused
	}
	c.err = nil
	ev := c.eventLocked(EventPaused, nil)
	c.mutex.Unlock()

	c.engine.Pause()
	c.emit(ev)
}

// TogglePlayPause ставит на паузу, если плеер играет, иначе запускает воспроизведение
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	c.mutex.Lock()
	active := c.playing || c.wantPlay
	c.mutex.Unlock()

	if active {
		c.Pause()
		return nil
	}
	return c.Play(ctx)
}

// SetVolume задает громкость. Значение приводится к диапазону [0, 1].
func (c *Controller) SetVolume(level float64) {
	level = engine.ClampVolume(level)

	c.mutex.Lock()
	c.volume = level
	c.err = nil
	ev := c.eventLocked(EventVolume, nil)
	c.mutex.Unlock()

	c.engine.SetVolume(level)
	c.emit(ev)
}

// AdjustVolume меняет громкость на delta относительно текущей
func (c *Controller) AdjustVolume(delta float64) {
	c.mutex.Lock()
	level := c.volume + delta
	c.mutex.Unlock()
	c.SetVolume(level)
}

// TrackEnded обрабатывает естественное окончание проигрывания playback.
// Сигнал от уже замененного проигрывания игнорируется.
func (c *Controller) TrackEnded(ctx context.Context, playback uint64) error {
	c.mutex.Lock()
	if !c.playing || playback != c.playback {
		current := c.playback
		c.mutex.Unlock()
		c.logger.Debug("устаревший сигнал окончания", "playback", playback, "current", current)
		return nil
	}
	c.playing = false
	c.wantPlay = false
	c.state = Paused
	c.err = nil
	ev := c.eventLocked(EventEnded, nil)
	advance := c.autoAdvance
	c.mutex.Unlock()

	c.emit(ev)
	if advance {
		return c.Next(ctx)
	}
	return nil
}

// SampleAudioLevel возвращает последнюю сводку спектра.
// Пустой результат означает, что анализатор не подключен.
func (c *Controller) SampleAudioLevel() Level {
	return levelFromBands(c.engine.SampleSpectrum())
}

// Snapshot возвращает текущее состояние плеера
func (c *Controller) Snapshot() Snapshot {
	c.mutex.Lock()
	s := c.snapshotLocked()
	c.mutex.Unlock()

	s.Position, s.Duration = c.engine.Position()
	if s.IsPlaying {
		s.Level = c.SampleAudioLevel()
	}
	return s
}

// Close останавливает воспроизведение и освобождает движок
func (c *Controller) Close() error {
	c.mutex.Lock()
	c.loadSeq++
	c.playing = false
	c.wantPlay = false
	c.loaded = false
	c.playback = 0
	c.mutex.Unlock()

	c.engine.Stop()
	return c.engine.Close()
}

// snapshotLocked снимок без данных движка (должен вызываться под мьютексом)
func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Index:     c.index,
		Count:     c.playlist.Len(),
		Track:     c.playlist.At(c.index),
		State:     c.state,
		IsPlaying: c.playing,
		Volume:    c.volume,
		Err:       c.err,
	}
}

func (c *Controller) eventLocked(kind EventKind, err error) Event {
	return Event{
		Kind:     kind,
		Snapshot: c.snapshotLocked(),
		Err:      err,
		At:       time.Now(),
	}
}

// emit уведомляет наблюдателей вне мьютекса
func (c *Controller) emit(ev Event) {
	for _, fn := range c.observers {
		fn(ev)
	}
}
