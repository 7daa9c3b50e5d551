package engine

import (
	"errors"
	"math"
	"testing"
)

func TestTapKeepsLatestSamples(t *testing.T) {
	tap := NewTap(4)
	tap.Write([][2]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}, {6, 6}})

	got := tap.Samples(4)
	expected := []float64{3, 4, 5, 6}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("Samples(4) = %v, ожидалось %v", got, expected)
		}
	}

	// Запрос больше размера буфера ограничивается размером
	if n := len(tap.Samples(10)); n != 4 {
		t.Errorf("Ожидалось 4 сэмпла, получено %d", n)
	}
}

func TestTapMixesToMono(t *testing.T) {
	tap := NewTap(2)
	tap.Write([][2]float64{{1, 0}, {0.5, -0.5}})

	got := tap.Samples(2)
	if got[0] != 0.5 || got[1] != 0 {
		t.Errorf("Ожидалось [0.5 0], получено %v", got)
	}
}

func TestTapReset(t *testing.T) {
	tap := NewTap(2)
	tap.Write([][2]float64{{1, 1}, {1, 1}})
	tap.Reset()

	for _, v := range tap.Samples(2) {
		if v != 0 {
			t.Fatalf("После сброса буфер должен быть пустым, получено %v", tap.Samples(2))
		}
	}
}

func TestSpectrumSilence(t *testing.T) {
	spectrum := Spectrum(make([]float64, 1024), 8)
	if len(spectrum) != 8 {
		t.Fatalf("Ожидалось 8 полос, получено %d", len(spectrum))
	}
	for i, v := range spectrum {
		if v != 0 {
			t.Errorf("Полоса %d для тишины должна быть нулевой, получено %v", i, v)
		}
	}
}

func TestSpectrumSine(t *testing.T) {
	const n = 1024
	samples := make([]float64, n)
	for i := range samples {
		// Синус на 64-м отсчете FFT
		samples[i] = 0.8 * math.Sin(2*math.Pi*64*float64(i)/n)
	}

	spectrum := Spectrum(samples, 8)

	best := 0
	for i, v := range spectrum {
		if v < 0 || v > 1 {
			t.Errorf("Значение полосы вне [0, 1]: %v", v)
		}
		if v > spectrum[best] {
			best = i
		}
	}

	// Отсчет 64 попадает в полосу [49, 108)
	if best != 5 {
		t.Errorf("Ожидался максимум в полосе 5, получено %d (%v)", best, spectrum)
	}
	if math.Abs(spectrum[best]-0.8) > 0.05 {
		t.Errorf("Ожидалась амплитуда около 0.8, получено %v", spectrum[best])
	}
}

func TestSpectrumDegenerateInput(t *testing.T) {
	if got := Spectrum(nil, 4); len(got) != 4 {
		t.Errorf("Ожидалось 4 нулевые полосы, получено %v", got)
	}
	if got := Spectrum(make([]float64, 16), 0); len(got) != 0 {
		t.Errorf("Без полос результат должен быть пустым, получено %v", got)
	}
	// Полос больше, чем отсчетов спектра
	if got := Spectrum(make([]float64, 8), 32); len(got) != 32 {
		t.Errorf("Ожидалось 32 полосы, получено %d", len(got))
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.5, 0},
		{-1, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{1.7, 1},
		{2, 1},
		{math.NaN(), 0},
	}

	for _, test := range tests {
		if got := ClampVolume(test.input); got != test.expected {
			t.Errorf("ClampVolume(%v) = %v, ожидалось %v", test.input, got, test.expected)
		}
	}
}

func TestCheckVolume(t *testing.T) {
	if err := CheckVolume(0.5); err != nil {
		t.Errorf("Громкость 0.5 допустима: %v", err)
	}

	var rangeErr *VolumeOutOfRange
	if err := CheckVolume(1.5); !errors.As(err, &rangeErr) || rangeErr.Level != 1.5 {
		t.Errorf("Ожидалась ошибка VolumeOutOfRange для 1.5, получено: %v", err)
	}
	if err := CheckVolume(math.NaN()); err == nil {
		t.Error("NaN недопустимое значение громкости")
	}
}
