package engine

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep"
	"github.com/mjibson/go-dsp/fft"
)

// Tap кольцевой буфер моно-сэмплов для спектрального анализа
type Tap struct {
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewTap создает буфер заданного размера
func NewTap(size int) *Tap {
	return &Tap{
		buf:  make([]float64, size),
		size: size,
	}
}

// Write копирует сэмплы в буфер, смешивая каналы в моно
func (t *Tap) Write(samples [][2]float64) {
	t.mu.Lock()
	for i := range samples {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
}

// Samples возвращает последние n сэмплов в хронологическом порядке
func (t *Tap) Samples(n int) []float64 {
	if n > t.size {
		n = t.size
	}
	out := make([]float64, n)
	t.mu.Lock()
	start := (t.pos - n + t.size) % t.size
	for i := range n {
		out[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return out
}

// Reset обнуляет буфер, чтобы спектр прошлого трека не попадал в новый
func (t *Tap) Reset() {
	t.mu.Lock()
	clear(t.buf)
	t.pos = 0
	t.mu.Unlock()
}

// analyserPoint пропускает звук без изменений и копирует его в подключенный Tap
type analyserPoint struct {
	s   beep.Streamer
	tap func() *Tap
}

func (a *analyserPoint) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.s.Stream(samples)
	if t := a.tap(); t != nil && n > 0 {
		t.Write(samples[:n])
	}
	return n, ok
}

func (a *analyserPoint) Err() error {
	return a.s.Err()
}

// Spectrum считает амплитуды полос по окну сэмплов.
// Полосы распределены логарифмически, значения нормированы к [0, 1].
func Spectrum(samples []float64, bands int) []float64 {
	out := make([]float64, bands)
	n := len(samples)
	if bands <= 0 || n < 2 {
		return out
	}

	// Окно Ханна
	windowed := make([]float64, n)
	for i, s := range samples {
		windowed[i] = s * 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}

	coeffs := fft.FFTReal(windowed)
	half := n / 2

	// Коэффициент 4/n: 2 за счет половины спектра и 2 за счет усиления окна Ханна
	scale := 4 / float64(n)

	lo := 1
	for b := 0; b < bands; b++ {
		hi := int(math.Round(math.Pow(float64(half), float64(b+1)/float64(bands))))
		if hi <= lo {
			hi = lo + 1
		}
		if hi > half+1 {
			hi = half + 1
		}

		var peak float64
		for k := lo; k < hi && k <= half; k++ {
			if mag := cmplx.Abs(coeffs[k]) * scale; mag > peak {
				peak = mag
			}
		}
		out[b] = math.Min(peak, 1)
		if hi > lo {
			lo = hi
		}
	}

	return out
}
