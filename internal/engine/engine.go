// Package engine содержит движок воспроизведения: декодирование, вывод звука и анализ спектра
package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/go-boombox/internal/source"
)

// Значения по умолчанию
const (
	DefaultSampleRate = beep.SampleRate(44100)
	DefaultBuffer     = 100 * time.Millisecond
	DefaultBands      = 8
	DefaultFFTSize    = 1024
)

// resampleQuality качество передискретизации
const resampleQuality = 4

// handle загруженный и декодированный источник.
// Декодер владеет потоком источника и закрывает его сам.
type handle struct {
	url      string
	streamer beep.StreamSeekCloser
	format   beep.Format
	cancel   context.CancelFunc
	ended    atomic.Bool
}

// Close освобождает ресурсы источника
func (h *handle) Close() {
	if h.streamer != nil {
		h.streamer.Close()
	}
	if h.cancel != nil {
		h.cancel()
	}
}

type loadResult struct {
	h   *handle
	err error
}

// Engine владеет одним источником звука и необязательным анализатором спектра.
// Бизнес-состояния не хранит.
type Engine struct {
	opener     source.Opener
	out        Output
	sampleRate beep.SampleRate
	buffer     time.Duration
	bands      int
	fftSize    int
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mutex       sync.Mutex
	initialized bool
	gen         uint64
	cancelLoad  context.CancelFunc
	current     *handle
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	level       float64
	playback    uint64 // счетчик запусков источника с начала
	active      uint64 // номер текущего проигрывания, 0 если нет

	tap      atomic.Pointer[Tap]
	finished chan uint64
}

// Option настраивает движок
type Option func(*Engine)

// WithOutput задает устройство вывода
func WithOutput(out Output) Option {
	return func(e *Engine) { e.out = out }
}

// WithSampleRate задает частоту дискретизации вывода
func WithSampleRate(sr int) Option {
	return func(e *Engine) {
		if sr > 0 {
			e.sampleRate = beep.SampleRate(sr)
		}
	}
}

// WithBuffer задает длительность буфера вывода
func WithBuffer(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.buffer = d
		}
	}
}

// WithSpectrum задает число полос и размер окна FFT
func WithSpectrum(bands, fftSize int) Option {
	return func(e *Engine) {
		if bands > 0 {
			e.bands = bands
		}
		if fftSize > 1 && fftSize&(fftSize-1) == 0 {
			e.fftSize = fftSize
		}
	}
}

// WithLogger задает логгер
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New создает движок, открывающий источники через opener
func New(opener source.Opener, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opener:     opener,
		out:        SpeakerOutput(),
		sampleRate: DefaultSampleRate,
		buffer:     DefaultBuffer,
		bands:      DefaultBands,
		fftSize:    DefaultFFTSize,
		logger:     log.New(io.Discard),
		ctx:        ctx,
		cancel:     cancel,
		level:      1,
		finished:   make(chan uint64, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Finished возвращает канал, в который приходит номер проигрывания при естественном окончании трека
func (e *Engine) Finished() <-chan uint64 {
	return e.finished
}

// CurrentPlayback возвращает номер текущего проигрывания или 0, если источник не запущен.
// Номер меняется при каждом запуске источника с начала и не меняется при снятии с паузы.
func (e *Engine) CurrentPlayback() uint64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.active
}

// Load заменяет текущий источник новым. Предыдущий источник освобождается сразу,
// незавершенная предыдущая загрузка отменяется. Отмена ctx прерывает только открытие.
func (e *Engine) Load(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return &MediaLoadError{URL: url, Err: err}
	}

	e.mutex.Lock()
	e.gen++
	gen := e.gen
	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	loadCtx, cancel := context.WithCancel(e.ctx)
	e.cancelLoad = cancel
	e.releaseLocked()
	e.mutex.Unlock()

	e.logger.Debug("загрузка источника", "url", url, "gen", gen)

	results := make(chan loadResult, 1)
	go func() {
		h, err := e.open(loadCtx, url)
		results <- loadResult{h: h, err: err}
	}()

	var res loadResult
	select {
	case res = <-results:
	case <-ctx.Done():
		cancel()
		// Источник, открытый после отмены, закрываем в фоне
		go func() {
			if late := <-results; late.h != nil {
				late.h.Close()
			}
		}()
		res = loadResult{err: ctx.Err()}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if gen != e.gen {
		if res.h != nil {
			res.h.Close()
		}
		cancel()
		e.logger.Debug("загрузка устарела", "url", url, "gen", gen)
		return ErrSuperseded
	}
	e.cancelLoad = nil

	if res.err != nil {
		cancel()
		return &MediaLoadError{URL: url, Err: res.err}
	}

	res.h.cancel = cancel
	e.current = res.h
	e.logger.Debug("источник загружен", "url", url,
		"sample_rate", int(res.h.format.SampleRate), "channels", res.h.format.NumChannels)
	return nil
}

// contentTyped источник, сообщающий MIME тип потока (HTTP ответ)
type contentTyped interface {
	ContentType() string
}

// codecFor выбирает декодер по расширению URL, а без известного расширения по Content-Type
func codecFor(url string, r io.Reader) string {
	switch ext := source.Ext(url); ext {
	case ".wav", ".flac", ".mp3":
		return ext
	}

	if ct, ok := r.(contentTyped); ok {
		mediaType, _, _ := strings.Cut(strings.ToLower(ct.ContentType()), ";")
		switch strings.TrimSpace(mediaType) {
		case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
			return ".wav"
		case "audio/flac", "audio/x-flac":
			return ".flac"
		}
	}
	return ".mp3"
}

// open открывает и декодирует источник
func (e *Engine) open(ctx context.Context, url string) (*handle, error) {
	rc, err := e.opener.Open(ctx, url)
	if err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch codecFor(url, rc) {
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	case ".flac":
		streamer, format, err = flac.Decode(rc)
	default:
		streamer, format, err = mp3.Decode(rc)
	}
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("ошибка декодирования: %w", err)
	}

	return &handle{
		url:      url,
		streamer: streamer,
		format:   format,
	}, nil
}

// Start запускает или возобновляет воспроизведение текущего источника
func (e *Engine) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &PlaybackStartError{Err: err}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	h := e.current
	if h == nil {
		return &PlaybackStartError{Err: ErrNothingLoaded}
	}

	// Устройство вывода инициализируется один раз за время жизни движка
	if !e.initialized {
		if err := e.out.Init(e.sampleRate, e.sampleRate.N(e.buffer)); err != nil {
			return &PlaybackStartError{Err: fmt.Errorf("ошибка инициализации динамиков: %w", err)}
		}
		e.initialized = true
	}

	// Трек на паузе: просто снимаем паузу
	if e.ctrl != nil && !h.ended.Load() {
		e.out.Lock()
		e.ctrl.Paused = false
		e.out.Unlock()
		return nil
	}

	// Трек доигран до конца: начинаем сначала
	if h.ended.Load() {
		e.out.Lock()
		err := h.streamer.Seek(0)
		e.out.Unlock()
		if err != nil {
			return &PlaybackStartError{Err: fmt.Errorf("ошибка перемотки: %w", err)}
		}
		h.ended.Store(false)
	}

	var s beep.Streamer = h.streamer
	if h.format.SampleRate != e.sampleRate {
		s = beep.Resample(resampleQuality, h.format.SampleRate, e.sampleRate, s)
	}

	e.ctrl = &beep.Ctrl{Streamer: s}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2}
	applyVolume(e.volume, e.level)

	if t := e.tap.Load(); t != nil {
		t.Reset()
	}
	point := &analyserPoint{s: e.volume, tap: e.tap.Load}

	e.playback++
	id := e.playback
	e.active = id
	e.out.Play(beep.Seq(point, beep.Callback(func() {
		// Вызывается под блокировкой вывода, поэтому мьютекс движка не берем
		h.ended.Store(true)
		select {
		case e.finished <- id:
		default:
		}
	})))

	e.logger.Debug("воспроизведение запущено", "url", h.url, "playback", id)
	return nil
}

// Pause ставит текущий источник на паузу
func (e *Engine) Pause() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.ctrl != nil {
		e.out.Lock()
		e.ctrl.Paused = true
		e.out.Unlock()
	}
}

// Stop останавливает воспроизведение и освобождает источник. Повторный вызов безопасен.
func (e *Engine) Stop() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.releaseLocked()
}

// releaseLocked освобождает текущий источник (должен вызываться под мьютексом)
func (e *Engine) releaseLocked() {
	if e.ctrl != nil {
		e.out.Clear()
		e.ctrl = nil
		e.volume = nil
	}

	if e.current != nil {
		e.current.Close()
		e.current = nil
	}
	e.active = 0

	// Сигнал окончания относится к освобожденному источнику
	select {
	case <-e.finished:
	default:
	}
}

// SetVolume задает громкость в диапазоне [0, 1]
func (e *Engine) SetVolume(level float64) {
	level = ClampVolume(level)

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.level = level
	if e.volume != nil {
		e.out.Lock()
		applyVolume(e.volume, level)
		e.out.Unlock()
	}
}

// applyVolume переводит линейный уровень в усиление effects.Volume по основанию 2
func applyVolume(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}

// AttachAnalyser подключает анализатор спектра. Повторный вызов ничего не делает.
func (e *Engine) AttachAnalyser() {
	if e.tap.CompareAndSwap(nil, NewTap(e.fftSize)) {
		e.logger.Debug("анализатор подключен", "fft_size", e.fftSize, "bands", e.bands)
	}
}

// SampleSpectrum возвращает амплитуды полос или nil, если анализатор не подключен
func (e *Engine) SampleSpectrum() []float64 {
	t := e.tap.Load()
	if t == nil {
		return nil
	}
	return Spectrum(t.Samples(e.fftSize), e.bands)
}

// Position возвращает текущую позицию и длительность источника
func (e *Engine) Position() (current, total time.Duration) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	h := e.current
	if h == nil {
		return 0, 0
	}

	e.out.Lock()
	pos := h.streamer.Position()
	length := h.streamer.Len()
	e.out.Unlock()

	if length < 0 {
		length = 0
	}
	return h.format.SampleRate.D(pos), h.format.SampleRate.D(length)
}

// Close останавливает воспроизведение и освобождает устройство вывода
func (e *Engine) Close() error {
	e.cancel()
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.releaseLocked()
	if e.initialized {
		e.out.Close()
		e.initialized = false
	}
	return nil
}
