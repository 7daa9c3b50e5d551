// Package source открывает аудио источники по URL: локальные файлы, HTTP и S3
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazadus/go-boombox/internal/streaming"
)

// ErrS3NotConfigured возвращается для адресов s3://, если клиент S3 не настроен
var ErrS3NotConfigured = errors.New("хранилище S3 не настроено")

// Opener открывает источник по URL
type Opener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// OpenerFunc адаптер функции к интерфейсу Opener
type OpenerFunc func(ctx context.Context, url string) (io.ReadCloser, error)

// Open вызывает f(ctx, url)
func (f OpenerFunc) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	return f(ctx, url)
}

// Resolver выбирает способ открытия по схеме URL
type Resolver struct {
	MediaDir   string
	HTTPClient *http.Client
	BufferSize int
	// S3 может быть nil, тогда адреса s3:// недоступны
	S3 Opener
}

// Open открывает источник
func (r *Resolver) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	switch {
	case IsHTTP(url):
		return streaming.NewReader(ctx, r.HTTPClient, url, r.BufferSize)
	case strings.HasPrefix(url, "s3://"):
		if r.S3 == nil {
			return nil, ErrS3NotConfigured
		}
		return r.S3.Open(ctx, url)
	default:
		return r.openFile(ctx, url)
	}
}

func (r *Resolver) openFile(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := r.LocalPath(url)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	return file, nil
}

// LocalPath превращает URL локального трека в путь файловой системы.
// Пути плейлиста вида /audio/116.mp3 отсчитываются от MediaDir, если он задан.
func (r *Resolver) LocalPath(url string) string {
	path := strings.TrimPrefix(url, "file://")
	if r.MediaDir == "" {
		return path
	}
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(r.MediaDir, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}

// IsHTTP возвращает true для адресов http:// и https://
func IsHTTP(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Ext возвращает расширение файла из URL в нижнем регистре, без параметров запроса
func Ext(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx != -1 {
		url = url[:idx]
	}
	return strings.ToLower(filepath.Ext(url))
}
