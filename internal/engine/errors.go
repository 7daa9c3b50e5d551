package engine

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSuperseded возвращается загрузкой, которую обогнала более новая загрузка
	ErrSuperseded = errors.New("загрузка отменена более новым запросом")
	// ErrNothingLoaded возвращается при попытке воспроизведения без загруженного трека
	ErrNothingLoaded = errors.New("трек не загружен")
)

// MediaLoadError источник не удалось получить или декодировать
type MediaLoadError struct {
	URL string
	Err error
}

func (e *MediaLoadError) Error() string {
	return fmt.Sprintf("ошибка загрузки %s: %v", e.URL, e.Err)
}

func (e *MediaLoadError) Unwrap() error {
	return e.Err
}

// PlaybackStartError устройство вывода отказалось начать воспроизведение
type PlaybackStartError struct {
	Err error
}

func (e *PlaybackStartError) Error() string {
	return fmt.Sprintf("ошибка запуска воспроизведения: %v", e.Err)
}

func (e *PlaybackStartError) Unwrap() error {
	return e.Err
}

// VolumeOutOfRange громкость вне диапазона [0, 1]
type VolumeOutOfRange struct {
	Level float64
}

func (e *VolumeOutOfRange) Error() string {
	return fmt.Sprintf("громкость %v вне диапазона [0, 1]", e.Level)
}

// CheckVolume проверяет, что уровень громкости лежит в [0, 1]
func CheckVolume(level float64) error {
	if math.IsNaN(level) || level < 0 || level > 1 {
		return &VolumeOutOfRange{Level: level}
	}
	return nil
}

// ClampVolume приводит уровень громкости к диапазону [0, 1]. NaN считается нулем.
func ClampVolume(level float64) float64 {
	switch {
	case math.IsNaN(level), level < 0:
		return 0
	case level > 1:
		return 1
	default:
		return level
	}
}
