package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// S3PutObjectAPI is the part of the S3 client used by the archive
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores exported payloads as JSON objects
type S3Archiver struct {
	client S3PutObjectAPI
	bucket string
	now    func() time.Time
}

func NewS3Archiver(client S3PutObjectAPI, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, now: time.Now}
}

// ObjectKey returns exports/<yyyy-mm-dd>/<id>.json
func (a *S3Archiver) ObjectKey(id string) string {
	return fmt.Sprintf("exports/%s/%s.json", a.now().UTC().Format("2006-01-02"), id)
}

func (a *S3Archiver) Archive(ctx context.Context, id string, payload models.ExportPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.ObjectKey(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload export archive: %w", err)
	}
	return nil
}
