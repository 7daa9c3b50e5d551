// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazadus/go-boombox/internal/data"
)

// Значения по умолчанию
const (
	DefaultVolume     = 0.5
	DefaultSampleRate = 44100
	DefaultBufferMs   = 100
	DefaultBands      = 8
	DefaultFFTSize    = 1024
	DefaultFrameRate  = 30
	DefaultLogLevel   = "info"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	PlaylistFile string       `yaml:"playlist_file"`
	Tracks       []data.Track `yaml:"tracks"`
	MediaDir     string       `yaml:"media_dir"`

	Volume      float64 `yaml:"volume"`
	SampleRate  int     `yaml:"sample_rate"`
	BufferMs    int     `yaml:"buffer_ms"`
	Bands       int     `yaml:"bands"`
	FFTSize     int     `yaml:"fft_size"`
	FrameRate   int     `yaml:"frame_rate"`
	AutoAdvance bool    `yaml:"auto_advance"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	AwsAccessKey string `yaml:"aws_access_key"`
	AwsSecretKey string `yaml:"aws_secret_key"`
	AwsRegion    string `yaml:"aws_region"`
	AwsEndpoint  string `yaml:"aws_endpoint"`

	// volumeSet показывает, была ли громкость задана явно
	volumeSet bool
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не считается ошибкой: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := strings.Replace(filePath, "~", home, 1)

	config := &Config{}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := config.unmarshal(raw); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	case os.IsNotExist(err):
		// Работаем со значениями по умолчанию
	default:
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}

	// Подгружаем .env, если он есть, и применяем переменные окружения
	_ = godotenv.Load()
	config.applyEnv()

	config.applyDefaults()

	// Раскрываем тильду в путях
	config.PlaylistFile = strings.Replace(config.PlaylistFile, "~", home, 1)
	config.MediaDir = strings.Replace(config.MediaDir, "~", home, 1)
	config.LogFile = strings.Replace(config.LogFile, "~", home, 1)

	return config, nil
}

func (c *Config) unmarshal(raw []byte) error {
	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}

	// Нулевая громкость допустима, поэтому проверяем наличие ключа отдельно
	var keys map[string]any
	if err := yaml.Unmarshal(raw, &keys); err == nil {
		_, c.volumeSet = keys["volume"]
	}
	return nil
}

// applyEnv переопределяет значения переменными окружения BOOMBOX_*
func (c *Config) applyEnv() {
	if v := os.Getenv("BOOMBOX_PLAYLIST_FILE"); v != "" {
		c.PlaylistFile = v
	}
	if v := os.Getenv("BOOMBOX_MEDIA_DIR"); v != "" {
		c.MediaDir = v
	}
	if v := os.Getenv("BOOMBOX_VOLUME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Volume = f
			c.volumeSet = true
		}
	}
	if v := os.Getenv("BOOMBOX_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("BOOMBOX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("BOOMBOX_AWS_ACCESS_KEY"); v != "" {
		c.AwsAccessKey = v
	}
	if v := os.Getenv("BOOMBOX_AWS_SECRET_KEY"); v != "" {
		c.AwsSecretKey = v
	}
	if v := os.Getenv("BOOMBOX_AWS_REGION"); v != "" {
		c.AwsRegion = v
	}
	if v := os.Getenv("BOOMBOX_AWS_ENDPOINT"); v != "" {
		c.AwsEndpoint = v
	}
}

// applyDefaults устанавливает значения по умолчанию, если они не заданы
func (c *Config) applyDefaults() {
	if !c.volumeSet {
		c.Volume = DefaultVolume
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BufferMs <= 0 {
		c.BufferMs = DefaultBufferMs
	}
	if c.Bands <= 0 {
		c.Bands = DefaultBands
	}
	// Размер окна FFT должен быть степенью двойки
	if c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0 {
		c.FFTSize = DefaultFFTSize
	}
	if c.FrameRate <= 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Playlist строит плейлист: из отдельного файла, из секции tracks или по умолчанию
func (c *Config) Playlist() (*data.Playlist, error) {
	if c.PlaylistFile != "" {
		return data.LoadPlaylist(c.PlaylistFile)
	}
	if len(c.Tracks) > 0 {
		return data.NewPlaylist(c.Tracks)
	}
	return data.NewPlaylist(data.DefaultTracks())
}

// HasS3 возвращает true, если заданы учетные данные S3
func (c *Config) HasS3() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != ""
}
