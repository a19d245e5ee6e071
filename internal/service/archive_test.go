package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrilog/backend/internal/models"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Archiver_Archive(t *testing.T) {
	client := &fakeS3{}
	archiver := NewS3Archiver(client, "meal-exports")
	archiver.now = func() time.Time { return time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC) }

	payload := models.ExportPayload{Input: "rice", GPTResponse: "1,2,3,4,5,6", Timestamp: "2025/6/1 12:00:00"}
	require.NoError(t, archiver.Archive(context.Background(), "meal-1", payload))

	assert.Equal(t, "meal-exports", aws.ToString(client.input.Bucket))
	assert.Equal(t, "exports/2025-06-01/meal-1.json", aws.ToString(client.input.Key))
	assert.Equal(t, "application/json", aws.ToString(client.input.ContentType))

	var got models.ExportPayload
	require.NoError(t, json.Unmarshal(client.body, &got))
	assert.Equal(t, payload, got)
}

func TestS3Archiver_ArchiveError(t *testing.T) {
	archiver := NewS3Archiver(&fakeS3{err: errors.New("access denied")}, "meal-exports")

	err := archiver.Archive(context.Background(), "meal-1", models.ExportPayload{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
