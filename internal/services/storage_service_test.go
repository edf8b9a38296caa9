// internal/services/storage_service_test.go
package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/move-permit-backend/internal/config"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fakeS3 struct {
	s3iface.S3API
	puts    []*s3.PutObjectInput
	deletes []string
	err     error
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, input)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func storageConfig(t *testing.T) *config.Config {
	return &config.Config{
		AWS: config.AWSConfig{
			Region:   "me-central-1",
			S3Bucket: "permits-test",
		},
		Upload: config.UploadConfig{
			MaxSizeMB:    1,
			AllowedTypes: []string{"application/pdf", "image/jpeg", "image/png"},
			LocalDir:     t.TempDir(),
			PublicURL:    "http://localhost:8080/uploads/",
		},
	}
}

func uploadOptions(cfg *config.Config) UploadOptions {
	return UploadOptions{
		Folder:       "permits/abc/passportCopy",
		MaxSize:      cfg.Upload.MaxUploadBytes(),
		AllowedTypes: cfg.Upload.AllowedTypes,
	}
}

func TestStorageServiceUploadLocal(t *testing.T) {
	cfg := storageConfig(t)
	service, err := NewStorageService(cfg)
	require.NoError(t, err)

	result, err := service.Upload(context.Background(), bytes.NewReader(samplePDF), "passport.PDF", int64(len(samplePDF)), uploadOptions(cfg))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Key, "permits/abc/passportCopy/"))
	assert.True(t, strings.HasSuffix(result.Key, ".pdf"))
	assert.Equal(t, "http://localhost:8080/uploads/"+result.Key, result.URL)
	assert.Equal(t, "passport.PDF", result.Filename)
	assert.Equal(t, "application/pdf", result.MimeType)
	assert.Equal(t, int64(len(samplePDF)), result.Size)

	stored, err := os.ReadFile(filepath.Join(cfg.Upload.LocalDir, filepath.FromSlash(result.Key)))
	require.NoError(t, err)
	assert.Equal(t, samplePDF, stored)

	require.NoError(t, service.Delete(context.Background(), result.Key))
	_, err = os.Stat(filepath.Join(cfg.Upload.LocalDir, filepath.FromSlash(result.Key)))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// deleting twice is fine
	assert.NoError(t, service.Delete(context.Background(), result.Key))
}

func TestStorageServiceRejectsOversizedFiles(t *testing.T) {
	cfg := storageConfig(t)
	service, err := NewStorageService(cfg)
	require.NoError(t, err)

	payload := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("a"), 1024*1024)...)

	tests := []struct {
		name string
		size int64
	}{
		{"declared size", int64(len(payload))},
		{"understated size", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Upload(context.Background(), bytes.NewReader(payload), "big.pdf", tt.size, uploadOptions(cfg))

			var uploadErr *UploadError
			require.ErrorAs(t, err, &uploadErr)
			assert.Equal(t, UploadTooLarge, uploadErr.Reason)
		})
	}
}

func TestStorageServiceRejectsDisallowedContent(t *testing.T) {
	cfg := storageConfig(t)
	service, err := NewStorageService(cfg)
	require.NoError(t, err)

	// the extension claims pdf but the content is plain text
	body := []byte("just some notes, not a document")
	_, err = service.Upload(context.Background(), bytes.NewReader(body), "notes.pdf", int64(len(body)), uploadOptions(cfg))

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, UploadBadType, uploadErr.Reason)

	entries, err := os.ReadDir(cfg.Upload.LocalDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStorageServiceUploadS3(t *testing.T) {
	cfg := storageConfig(t)
	client := &fakeS3{}
	service := NewStorageServiceWithClient(cfg, client)

	options := uploadOptions(cfg)
	options.IsPublic = true
	result, err := service.Upload(context.Background(), bytes.NewReader(samplePDF), "passport.pdf", int64(len(samplePDF)), options)
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, "permits-test", aws.StringValue(put.Bucket))
	assert.Equal(t, result.Key, aws.StringValue(put.Key))
	assert.Equal(t, "application/pdf", aws.StringValue(put.ContentType))
	assert.Equal(t, "public-read", aws.StringValue(put.ACL))
	assert.Equal(t, "https://permits-test.s3.me-central-1.amazonaws.com/"+result.Key, result.URL)

	cfg.AWS.CloudFrontURL = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/"+result.Key, service.getS3URL(result.Key))

	require.NoError(t, service.Delete(context.Background(), result.Key))
	assert.Equal(t, []string{result.Key}, client.deletes)
}

func TestStorageServiceS3Failure(t *testing.T) {
	cfg := storageConfig(t)
	outage := errors.New("503 slow down")
	service := NewStorageServiceWithClient(cfg, &fakeS3{err: outage})

	_, err := service.Upload(context.Background(), bytes.NewReader(samplePDF), "passport.pdf", int64(len(samplePDF)), uploadOptions(cfg))

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, UploadStorage, uploadErr.Reason)
	assert.ErrorIs(t, err, outage)
}
