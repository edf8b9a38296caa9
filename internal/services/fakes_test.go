// internal/services/fakes_test.go
package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/javajoker/move-permit-backend/internal/models"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []StatusChange
	err     error
}

func (n *recordingNotifier) Notify(ctx context.Context, change StatusChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return n.err
}

func (n *recordingNotifier) Changes() []StatusChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]StatusChange(nil), n.changes...)
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   int
	deleted []string
	fail    error
	// afterUpload runs once the file is stored, before the slot is written.
	afterUpload func()
}

func (u *fakeUploader) Upload(ctx context.Context, r io.Reader, filename string, size int64, options UploadOptions) (*UploadResult, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()

	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	if u.fail != nil {
		return nil, u.fail
	}
	if u.afterUpload != nil {
		u.afterUpload()
	}
	return &UploadResult{
		URL:      "https://files.test/" + options.Folder + "/" + filename,
		Key:      options.Folder + "/" + filename,
		Filename: filename,
		Size:     size,
		MimeType: "application/pdf",
	}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) Deleted() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.deleted...)
}

// slowNotifier holds back notifications for one status so later changes
// have every chance to overtake it.
type slowNotifier struct {
	recordingNotifier
	hold  models.PermitStatus
	delay time.Duration
}

func (n *slowNotifier) Notify(ctx context.Context, change StatusChange) error {
	if change.NewStatus == n.hold {
		time.Sleep(n.delay)
	}
	return n.recordingNotifier.Notify(ctx, change)
}

var errStorageDown = errors.New("bucket unavailable")
