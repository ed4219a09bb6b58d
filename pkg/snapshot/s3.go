package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Sink archives snapshots as JSON objects in an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	sink := snapshot.NewS3Sink(s3.NewFromConfig(cfg), "my-bucket", "vigil/")
//	ref, err := sink.Store(ctx, snapshot.Capture(src, src, src))
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink creates a sink writing to bucket under the given key
// prefix.
func NewS3Sink(client *s3.Client, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Store implements Sink. Keys carry the capture timestamp at
// nanosecond precision, so successive stores get distinct objects.
func (s *S3Sink) Store(ctx context.Context, snap Snapshot) (string, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("snapshot: encode: %w", err)
	}

	key := s.prefix + snap.TakenAt.Format("20060102T150405.000000000Z") + ".json"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: put s3://%s/%s: %w", s.bucket, key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

var _ Sink = (*S3Sink)(nil)
