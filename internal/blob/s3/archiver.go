package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
)

// ObjectPutter is the narrow upload surface the archiver needs. *Writer
// satisfies it.
type ObjectPutter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// RunArchiver implements domain.SnapshotArchiver by serializing run
// artifacts to JSON and uploading them to the configured bucket. Uploads
// are best-effort; callers log failures and carry on.
type RunArchiver struct {
	writer ObjectPutter
	now    func() time.Time
}

// NewRunArchiver creates a RunArchiver uploading through w.
func NewRunArchiver(w ObjectPutter) *RunArchiver {
	return &RunArchiver{writer: w, now: time.Now}
}

// ArchiveRun uploads the payload under a date-partitioned key:
//
//	runs/2025/06/15/{runID}.json
func (a *RunArchiver) ArchiveRun(ctx context.Context, runID string, payload any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("s3blob: archive run %s: marshal: %w", runID, err)
	}

	path := runPath(a.now().UTC(), runID)
	if err := a.writer.Put(ctx, path, &buf, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", runID, err)
	}
	return nil
}

func runPath(at time.Time, runID string) string {
	return fmt.Sprintf("runs/%s/%s.json", at.Format("2006/01/02"), runID)
}

// Compile-time interface check.
var _ domain.SnapshotArchiver = (*RunArchiver)(nil)
