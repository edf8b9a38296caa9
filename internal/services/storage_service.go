// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/move-permit-backend/internal/config"
)

// DocumentUploader stores a file and returns a durable reference to it.
// Delete removes a stored file by the key Upload returned.
type DocumentUploader interface {
	Upload(ctx context.Context, r io.Reader, filename string, size int64, options UploadOptions) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

// Upload failure reasons.
const (
	UploadTooLarge = "too_large"
	UploadBadType  = "bad_type"
	UploadStorage  = "storage"
)

// UploadError explains why a file was not stored.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (%s): %v", e.Reason, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// NewStorageServiceWithClient uses an existing S3 client.
func NewStorageServiceWithClient(config *config.Config, client s3iface.S3API) *StorageService {
	return &StorageService{s3Client: client, config: config}
}

func (s *StorageService) Upload(ctx context.Context, r io.Reader, filename string, size int64, options UploadOptions) (*UploadResult, error) {
	// Validate file size
	if options.MaxSize > 0 && size > options.MaxSize {
		return nil, &UploadError{
			Reason: UploadTooLarge,
			Err:    fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", size, options.MaxSize),
		}
	}

	// Read one byte past the limit so an understated size is still caught
	limit := options.MaxSize
	if limit <= 0 {
		limit = s.config.Upload.MaxUploadBytes()
	}
	fileBytes, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &UploadError{Reason: UploadStorage, Err: fmt.Errorf("failed to read file: %w", err)}
	}
	if int64(len(fileBytes)) > limit {
		return nil, &UploadError{
			Reason: UploadTooLarge,
			Err:    fmt.Errorf("file exceeds maximum allowed size %d bytes", limit),
		}
	}

	// Sniff the content instead of trusting the client's header or extension
	mime := mimetype.Detect(fileBytes)
	if !isAllowedType(mime, options.AllowedTypes) {
		return nil, &UploadError{
			Reason: UploadBadType,
			Err:    fmt.Errorf("file type %s is not allowed", mime.String()),
		}
	}

	key := s.generateFileName(filename, options.Folder, mime.Extension())

	var result *UploadResult
	if s.s3Client != nil {
		result, err = s.uploadToS3(ctx, fileBytes, key, mime.String(), options.IsPublic)
	} else {
		result, err = s.uploadToLocal(fileBytes, key, mime.String())
	}
	if err != nil {
		return nil, &UploadError{Reason: UploadStorage, Err: err}
	}

	result.Filename = filepath.Base(filename)
	return result, nil
}

func isAllowedType(mime *mimetype.MIME, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, allowedType := range allowed {
		if mime.Is(allowedType) {
			return true
		}
	}
	return false
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string, isPublic bool) (*UploadResult, error) {
	// Prepare S3 upload parameters
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if isPublic {
		params.ACL = aws.String("public-read")
	}

	// Upload to S3
	_, err := s.s3Client.PutObjectWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.config.Upload.LocalDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	logrus.WithField("key", key).Debug("Stored document on local disk")

	return &UploadResult{
		URL:      strings.TrimRight(s.config.Upload.PublicURL, "/") + "/" + key,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	if s.s3Client == nil {
		err := os.Remove(filepath.Join(s.config.Upload.LocalDir, filepath.FromSlash(key)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

func (s *StorageService) generateFileName(originalName, folder, detectedExt string) string {
	// Generate UUID for uniqueness
	id := uuid.New()

	ext := strings.ToLower(filepath.Ext(originalName))
	if detectedExt != "" {
		ext = detectedExt
	}

	// Create filename with timestamp and UUID
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
