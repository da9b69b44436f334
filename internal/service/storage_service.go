package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	appconfig "github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
)

// MediaPathPrefix is where locally stored objects are served.
const MediaPathPrefix = "/media/"

// ObjectStore persists generated audio and voice samples.
type ObjectStore interface {
	// Store writes data under key and returns its public URL.
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object behind url. Failures are logged, not returned.
	Delete(ctx context.Context, url string)
}

// StorageService stores objects in an S3-compatible bucket (Tigris, R2,
// MinIO) or, when no bucket is configured, on local disk.
type StorageService struct {
	client    *s3.Client
	bucket    string
	publicURL string
	enabled   bool

	localDir     string
	localBaseURL string

	logger *slog.Logger
}

// NewStorageService creates a new storage service.
func NewStorageService(cfg *appconfig.Config, logger *slog.Logger) (*StorageService, error) {
	if !cfg.StorageEnabled {
		logger.Info("object storage disabled - using local disk", "dir", cfg.LocalStorageDir)
		return &StorageService{
			localDir:     cfg.LocalStorageDir,
			localBaseURL: cfg.BaseURL + strings.TrimSuffix(MediaPathPrefix, "/"),
			logger:       logger,
		}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.StorageRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		o.UsePathStyle = true
	})

	publicURL := cfg.StoragePublicURL
	if publicURL == "" {
		publicURL = strings.TrimSuffix(cfg.StorageEndpoint, "/") + "/" + cfg.StorageBucket
	}

	logger.Info("storage service initialized",
		"bucket", cfg.StorageBucket,
		"endpoint", cfg.StorageEndpoint,
	)

	return &StorageService{
		client:    client,
		bucket:    cfg.StorageBucket,
		publicURL: publicURL,
		enabled:   true,
		logger:    logger,
	}, nil
}

// IsEnabled reports whether the S3 bucket is in use.
func (s *StorageService) IsEnabled() bool {
	return s.enabled
}

// Client returns the S3 client, or nil in local mode.
func (s *StorageService) Client() *s3.Client {
	return s.client
}

// Bucket returns the configured bucket name.
func (s *StorageService) Bucket() string {
	return s.bucket
}

// LocalDir returns the directory served under MediaPathPrefix in local mode.
func (s *StorageService) LocalDir() string {
	return s.localDir
}

func (s *StorageService) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	if !s.enabled {
		dest := filepath.Join(s.localDir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("failed to create media directory: %w", err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write object: %w", err)
		}
		return s.localBaseURL + "/" + key, nil
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Debug("stored object", "key", key, "size_bytes", len(data))
	return s.publicURL + "/" + key, nil
}

func (s *StorageService) Delete(ctx context.Context, url string) {
	key, ok := s.KeyFromURL(url)
	if !ok {
		s.logger.Warn("refusing to delete object outside storage", "url", url)
		return
	}

	if !s.enabled {
		err := os.Remove(filepath.Join(s.localDir, filepath.FromSlash(key)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to delete local object", "key", key, "error", err)
		}
		return
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			s.logger.Debug("object already deleted", "key", key)
			return
		}
		s.logger.Warn("failed to delete object", "key", key, "error", err)
		return
	}
	s.logger.Debug("deleted object", "key", key)
}

// KeyFromURL maps a URL returned by Store back to its object key.
func (s *StorageService) KeyFromURL(url string) (string, bool) {
	base := s.publicURL
	if !s.enabled {
		base = s.localBaseURL
	}
	if base == "" || !strings.HasPrefix(url, base+"/") {
		return "", false
	}
	key, err := cleanKey(strings.TrimPrefix(url, base+"/"))
	if err != nil {
		return "", false
	}
	return key, true
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: invalid object key %q", ErrInvalidInput, key)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

func audioKey(userID, generationID string) string {
	return fmt.Sprintf("audio/%s/%s.mp3", userID, generationID)
}

func voiceSampleKey(userID, voiceID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".mp3"
	}
	return fmt.Sprintf("voices/%s/%s%s", userID, voiceID, ext)
}
