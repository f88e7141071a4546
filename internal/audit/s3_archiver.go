package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/carelink/clinical-core/pkg/logging"
)

// S3API is the subset of the S3 client used by the archiver.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes evicted protected entries to S3 so the bounded
// in-memory trail never loses a lock or approve record.
type S3Archiver struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewS3Archiver creates an archiver. If bucket is empty the archiver is
// disabled and callers should pass nil to the trail instead.
func NewS3Archiver(s3Client S3API, bucket string, logger *logging.Logger) *S3Archiver {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Archiver{bucket: bucket, s3Client: s3Client, logger: logger.Component("audit-archive")}
}

// Enabled returns true if archival is configured.
func (a *S3Archiver) Enabled() bool {
	return a != nil && a.bucket != "" && a.s3Client != nil
}

// ArchiveEntry writes the entry as JSON under a date-partitioned key.
func (a *S3Archiver) ArchiveEntry(ctx context.Context, e Entry) error {
	if !a.Enabled() {
		return fmt.Errorf("audit: s3 archiver not configured")
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}

	key := fmt.Sprintf("audit/evicted/%d/%02d/%02d/%s.json",
		e.Timestamp.Year(), e.Timestamp.Month(), e.Timestamp.Day(), e.ID)

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("audit: s3 put %s: %w", key, err)
	}

	a.logger.Info("archived audit entry", "entry_id", e.ID, "s3_key", key)
	return nil
}
