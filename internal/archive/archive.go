// Package archive stores raw inbound payloads (SMS bodies, webhook JSON) in
// cloud storage before extraction, as an audit trail. Archiving is best
// effort: callers log failures and continue.
package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Store writes raw inbound payloads and returns the object URI.
type Store interface {
	// ArchiveSMS stores a raw SMS body with its sender.
	ArchiveSMS(ctx context.Context, message, sender string) (string, error)

	// ArchiveWebhook stores a raw webhook body for the given service key.
	ArchiveWebhook(ctx context.Context, service string, payload []byte) (string, error)
}

// GCSStore archives payloads to a GCS bucket. Objects are laid out as
// sms/YYYY/MM/DD/<uuid>.txt and webhooks/<service>/YYYY/MM/DD/<uuid>.json.
// Application Default Credentials are assumed.
type GCSStore struct {
	bucket string
}

// NewGCSStore creates a GCS-backed archive for the given bucket.
func NewGCSStore(bucket string) *GCSStore {
	return &GCSStore{bucket: bucket}
}

// ArchiveSMS implements Store.
func (s *GCSStore) ArchiveSMS(ctx context.Context, message, sender string) (string, error) {
	object := fmt.Sprintf("sms/%s/%s.txt", time.Now().Format("2006/01/02"), uuid.New().String())
	body := fmt.Sprintf("sender: %s\n\n%s\n", sender, message)
	return s.write(ctx, object, "text/plain", []byte(body))
}

// ArchiveWebhook implements Store.
func (s *GCSStore) ArchiveWebhook(ctx context.Context, service string, payload []byte) (string, error) {
	object := fmt.Sprintf("webhooks/%s/%s/%s.json", service, time.Now().Format("2006/01/02"), uuid.New().String())
	return s.write(ctx, object, "application/json", payload)
}

func (s *GCSStore) write(ctx context.Context, object, contentType string, data []byte) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("archive: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("archive: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("archive: finalize object: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// NopStore discards payloads. Used when no bucket is configured.
type NopStore struct{}

// ArchiveSMS implements Store.
func (NopStore) ArchiveSMS(ctx context.Context, message, sender string) (string, error) {
	return "", nil
}

// ArchiveWebhook implements Store.
func (NopStore) ArchiveWebhook(ctx context.Context, service string, payload []byte) (string, error) {
	return "", nil
}

var (
	_ Store = (*GCSStore)(nil)
	_ Store = NopStore{}
)
