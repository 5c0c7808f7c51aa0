package media_storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/internal/config"
	"github.com/khoahotran/account-service/pkg/logger"
)

type s3Adapter struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	logger        logger.Logger
}

func NewS3Adapter(ctx context.Context, cfg config.Config, log logger.Logger) (service.Uploader, error) {
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket has not config")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	log.Info("S3 uploader initialized", zap.String("bucket", cfg.S3.Bucket))
	return &s3Adapter{
		client:        client,
		bucket:        cfg.S3.Bucket,
		publicBaseURL: publicBaseURL(cfg),
		logger:        log,
	}, nil
}

func publicBaseURL(cfg config.Config) string {
	if cfg.S3.PublicBaseURL != "" {
		return strings.TrimRight(cfg.S3.PublicBaseURL, "/")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3.Bucket, cfg.S3.Region)
}

func (a *s3Adapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	key := path.Join(folder, publicID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(data)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3: %w", err)
	}
	return a.publicBaseURL + "/" + key, nil
}

func (a *s3Adapter) Delete(ctx context.Context, folder string, publicID string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(path.Join(folder, publicID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3: %w", err)
	}
	return nil
}
