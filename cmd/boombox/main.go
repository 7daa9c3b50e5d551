package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hazadus/go-boombox/internal/config"
	"github.com/hazadus/go-boombox/internal/data"
	"github.com/hazadus/go-boombox/internal/engine"
	"github.com/hazadus/go-boombox/internal/s3"
	"github.com/hazadus/go-boombox/internal/source"
	"github.com/hazadus/go-boombox/internal/streaming"
	"github.com/hazadus/go-boombox/internal/transport"
)

const (
	defaultConfigPath = "~/.boombox.yaml"
)

// Application содержит общее состояние для всех команд
type Application struct {
	Config   *config.Config
	Playlist *data.Playlist
	Logger   *log.Logger

	logFile io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app := &Application{Logger: log.New(io.Discard)}
	err := app.createRootCommand(ctx).ExecuteContext(ctx)
	app.close()
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup загружает конфигурацию и плейлист. playlistPath переопределяет файл плейлиста из конфигурации.
func (app *Application) setup(configPath, playlistPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if playlistPath != "" {
		cfg.PlaylistFile = playlistPath
	}

	playlist, err := cfg.Playlist()
	if err != nil {
		return fmt.Errorf("ошибка загрузки плейлиста: %w", err)
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return err
	}

	app.Config = cfg
	app.Playlist = playlist
	app.Logger = logger
	app.logFile = logFile
	return nil
}

// newLogger пишет в log_file, без него журнал отключен: терминал занят плеером
func newLogger(cfg *config.Config) (*log.Logger, io.Closer, error) {
	if cfg.LogFile == "" {
		return log.New(io.Discard), nil, nil
	}

	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка открытия файла журнала: %w", err)
	}

	logger := log.NewWithOptions(file, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "boombox",
	})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
		logger.Warn("неизвестный уровень журнала", "level", cfg.LogLevel)
	}
	logger.SetLevel(level)

	return logger, file, nil
}

// newResolver собирает открытие источников: файлы, HTTP и S3, если он настроен
func (app *Application) newResolver() *source.Resolver {
	resolver := &source.Resolver{
		MediaDir:   app.Config.MediaDir,
		HTTPClient: streaming.NewClient(),
		BufferSize: streaming.DefaultBufferSize,
	}

	if app.Config.HasS3() {
		client, err := s3.NewClient(&s3.Config{
			Region:    app.Config.AwsRegion,
			AccessKey: app.Config.AwsAccessKey,
			SecretKey: app.Config.AwsSecretKey,
			Endpoint:  app.Config.AwsEndpoint,
		})
		if err != nil {
			app.Logger.Warn("S3 недоступен", "err", err)
		} else {
			resolver.S3 = client
		}
	}

	return resolver
}

// newController создает движок и контроллер над плейлистом.
// Возвращает канал окончания трека движка.
func (app *Application) newController() (*transport.Controller, <-chan uint64) {
	cfg := app.Config

	eng := engine.New(
		app.newResolver(),
		engine.WithSampleRate(cfg.SampleRate),
		engine.WithBuffer(time.Duration(cfg.BufferMs)*time.Millisecond),
		engine.WithSpectrum(cfg.Bands, cfg.FFTSize),
		engine.WithLogger(app.Logger),
	)

	controller := transport.New(
		app.Playlist,
		eng,
		transport.WithLogger(app.Logger),
		transport.WithVolume(cfg.Volume),
		transport.WithAutoAdvance(cfg.AutoAdvance),
		transport.WithAnalyser(),
		transport.WithObserver(app.logEvent),
	)

	return controller, eng.Finished()
}

// logEvent записывает переходы контроллера в журнал
func (app *Application) logEvent(ev transport.Event) {
	s := ev.Snapshot
	if ev.Err != nil {
		app.Logger.Error("ошибка плеера", "event", ev.Kind, "index", s.Index, "title", s.Track.Title, "err", ev.Err)
		return
	}
	app.Logger.Info("переход", "event", ev.Kind, "state", s.State, "index", s.Index, "title", s.Track.Title, "volume", s.Volume)
}

func (app *Application) close() {
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}
