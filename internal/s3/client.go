// Package s3 предоставляет чтение аудио объектов из S3-совместимого хранилища
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Config содержит настройки для S3
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// ObjectGetter часть API S3 клиента, которая нужна для чтения объектов
type ObjectGetter interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// Client открывает объекты по адресам вида s3://bucket/key
type Client struct {
	getter ObjectGetter
}

// NewClient создает клиента S3 по конфигурации
func NewClient(config *Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
	}

	// Если указан endpoint, добавляем его
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return &Client{getter: s3.New(sess)}, nil
}

// NewClientWithGetter создает клиента поверх готовой реализации API
func NewClientWithGetter(getter ObjectGetter) *Client {
	return &Client{getter: getter}
}

// ParseURL разбирает адрес s3://bucket/key
func ParseURL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("неверный адрес S3: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("неверная схема адреса S3: %q", u.Scheme)
	}

	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("в адресе S3 должны быть указаны бакет и ключ: %s", rawURL)
	}
	return bucket, key, nil
}

// Open открывает объект для чтения. Тело ответа закрывает вызывающий.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	bucket, key, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	out, err := c.getter.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения объекта из S3: %w", err)
	}

	return out.Body, nil
}
