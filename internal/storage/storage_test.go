package storage

import (
	"context"
	"testing"

	"github.com/accountsvc/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.Config{Storage: config.StorageConfig{Backend: "s3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage backend "s3"`)
}

func TestNewMinioClient_RequiresConfig(t *testing.T) {
	cases := []config.MinioConfig{
		{},
		{Endpoint: "localhost:9000"},
		{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
	}
	for _, cfg := range cases {
		_, err := NewMinioClient(cfg)
		assert.Error(t, err, "%+v", cfg)
	}

	client, err := NewMinioClient(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "a",
		SecretKey: "b",
		Bucket:    "events",
	})
	require.NoError(t, err)
	assert.Equal(t, "events", client.Bucket())
	assert.NoError(t, client.Close())
}

func TestOpen_MinioMissingBucket(t *testing.T) {
	cfg := config.Config{
		Storage: config.StorageConfig{Backend: BackendMinio},
		Minio:   config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
	}
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio: minio bucket is required")
}

func TestNewGCSClient_RequiresBucket(t *testing.T) {
	_, err := NewGCSClient(context.Background(), config.GCSConfig{})
	assert.EqualError(t, err, "gcs bucket is required")
}
