package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

// MockObjectGetter мок для S3 клиента
type MockObjectGetter struct {
	getObjectFunc func(input *s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

func (m *MockObjectGetter) GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	return m.getObjectFunc(input)
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		input   string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://music/tracks/116.mp3", "music", "tracks/116.mp3", false},
		{"s3://music/defeat.mp3", "music", "defeat.mp3", false},
		{"s3://music", "", "", true},
		{"s3:///key.mp3", "", "", true},
		{"https://music/key.mp3", "", "", true},
	}

	for _, test := range tests {
		bucket, key, err := ParseURL(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseURL(%q): ожидалась ошибка", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseURL(%q): неожиданная ошибка %v", test.input, err)
			continue
		}
		if bucket != test.bucket || key != test.key {
			t.Errorf("ParseURL(%q) = (%q, %q), ожидалось (%q, %q)", test.input, bucket, key, test.bucket, test.key)
		}
	}
}

func TestOpenSuccess(t *testing.T) {
	mock := &MockObjectGetter{
		getObjectFunc: func(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			if aws.StringValue(input.Bucket) != "music" {
				t.Errorf("Ожидался бакет music, получено %s", aws.StringValue(input.Bucket))
			}
			if aws.StringValue(input.Key) != "tracks/116.mp3" {
				t.Errorf("Ожидался ключ tracks/116.mp3, получено %s", aws.StringValue(input.Key))
			}
			return &s3.GetObjectOutput{
				Body: io.NopCloser(strings.NewReader("mp3-data")),
			}, nil
		},
	}

	client := NewClientWithGetter(mock)
	body, err := client.Open(context.Background(), "s3://music/tracks/116.mp3")
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	defer body.Close()

	content, _ := io.ReadAll(body)
	if string(content) != "mp3-data" {
		t.Errorf("Ожидалось 'mp3-data', получено %q", string(content))
	}
}

func TestOpenError(t *testing.T) {
	cause := awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	mock := &MockObjectGetter{
		getObjectFunc: func(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			return nil, cause
		},
	}

	client := NewClientWithGetter(mock)
	_, err := client.Open(context.Background(), "s3://music/missing.mp3")
	if err == nil {
		t.Fatal("Ожидалась ошибка для отсутствующего объекта")
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != s3.ErrCodeNoSuchKey {
		t.Errorf("Ошибка должна оборачивать исходную ошибку AWS: %v", err)
	}
}

func TestOpenInvalidURL(t *testing.T) {
	client := NewClientWithGetter(&MockObjectGetter{
		getObjectFunc: func(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
			t.Error("API не должен вызываться для неверного адреса")
			return nil, nil
		},
	})

	if _, err := client.Open(context.Background(), "s3://bucket-only"); err == nil {
		t.Error("Ожидалась ошибка для адреса без ключа")
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(&Config{
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  "https://storage.example.com",
	})
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if client.getter == nil {
		t.Error("Клиент S3 должен быть инициализирован")
	}
}
