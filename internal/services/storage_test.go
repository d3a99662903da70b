package services

import (
	"testing"

	"facematch/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minioService(t *testing.T) *StorageService {
	t.Helper()
	svc, err := NewStorageService(&config.Config{
		MinIOEndpoint:  "localhost:9000",
		MinIOAccessKey: "minioadmin",
		MinIOSecretKey: "minioadmin",
		S3Bucket:       "facematch-photos",
	})
	require.NoError(t, err)
	return svc
}

func TestKeyFromMinIOURL(t *testing.T) {
	svc := minioService(t)

	key := svc.KeyFromURL("http://localhost:9000/facematch-photos/abc_small.jpg")
	assert.Equal(t, "abc_small.jpg", key)
}

func TestKeyFromS3URL(t *testing.T) {
	svc := minioService(t)

	key := svc.KeyFromURL("https://facematch-photos.s3.us-east-1.amazonaws.com/abc_large.jpg")
	assert.Equal(t, "abc_large.jpg", key)
}

func TestKeyFromUnknownURL(t *testing.T) {
	svc := minioService(t)

	assert.Equal(t, "", svc.KeyFromURL("https://elsewhere.example.com/pic.jpg"))
	assert.Equal(t, "", svc.KeyFromURL("://not a url"))
}
