package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolverOpensLocalFile(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tempDir, "audio"), 0755); err != nil {
		t.Fatalf("Ошибка создания директории: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "audio", "116.mp3"), []byte("local"), 0644); err != nil {
		t.Fatalf("Ошибка записи файла: %v", err)
	}

	r := &Resolver{MediaDir: tempDir}
	rc, err := r.Open(context.Background(), "/audio/116.mp3")
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	defer rc.Close()

	content, _ := io.ReadAll(rc)
	if string(content) != "local" {
		t.Errorf("Ожидалось 'local', получено %q", string(content))
	}
}

func TestResolverMissingFile(t *testing.T) {
	r := &Resolver{MediaDir: t.TempDir()}
	if _, err := r.Open(context.Background(), "/audio/missing.mp3"); err == nil {
		t.Error("Ожидалась ошибка для отсутствующего файла")
	}
}

func TestResolverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer server.Close()

	r := &Resolver{HTTPClient: server.Client()}
	rc, err := r.Open(context.Background(), server.URL+"/track.mp3")
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	defer rc.Close()

	content, _ := io.ReadAll(rc)
	if string(content) != "remote" {
		t.Errorf("Ожидалось 'remote', получено %q", string(content))
	}
}

func TestResolverS3(t *testing.T) {
	var requested string
	r := &Resolver{
		S3: OpenerFunc(func(ctx context.Context, url string) (io.ReadCloser, error) {
			requested = url
			return io.NopCloser(strings.NewReader("s3")), nil
		}),
	}

	rc, err := r.Open(context.Background(), "s3://bucket/key.mp3")
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	rc.Close()

	if requested != "s3://bucket/key.mp3" {
		t.Errorf("Запрос к S3 не был выполнен, получено %q", requested)
	}
}

func TestResolverS3NotConfigured(t *testing.T) {
	r := &Resolver{}
	if _, err := r.Open(context.Background(), "s3://bucket/key.mp3"); !errors.Is(err, ErrS3NotConfigured) {
		t.Errorf("Ожидалась ошибка ErrS3NotConfigured, получено: %v", err)
	}
}

func TestResolverCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Resolver{}
	if _, err := r.Open(ctx, "local.mp3"); !errors.Is(err, context.Canceled) {
		t.Errorf("Ожидалась ошибка context.Canceled, получено: %v", err)
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/audio/116.mp3", ".mp3"},
		{"https://example.com/a.WAV?x=1", ".wav"},
		{"s3://bucket/b.flac", ".flac"},
		{"noext", ""},
	}

	for _, test := range tests {
		if got := Ext(test.input); got != test.expected {
			t.Errorf("Ext(%q) = %q, ожидалось %q", test.input, got, test.expected)
		}
	}
}
