package services_test

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"whereat-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^posts/alice/[0-9a-f-]{36}(\.[a-z0-9]+)?$`)

func TestImageKey(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		ext         string
	}{
		{"photo.PNG", "image/png", ".png"},
		{"photo", "image/jpeg", ".jpg"},
		{"../../etc/passwd", "image/webp", ".webp"},
		{"weird.j$g", "image/gif", ".gif"},
	}
	for _, tt := range tests {
		key := services.ImageKey("alice", tt.filename, tt.contentType)
		assert.Regexp(t, keyPattern, key)
		assert.True(t, strings.HasSuffix(key, tt.ext), key)
	}
}

func TestNewMediaService_DisabledWithoutBucket(t *testing.T) {
	svc, err := services.NewMediaService(context.Background(), services.MediaConfig{Region: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestPresignPostImage(t *testing.T) {
	ctx := context.Background()
	svc, err := services.NewMediaService(ctx, services.MediaConfig{
		Region:        "us-east-1",
		Bucket:        "whereat-test",
		AccessKey:     "AKIDEXAMPLE",
		SecretKey:     "secret",
		Endpoint:      "http://localhost:9000",
		PublicBaseURL: "https://cdn.example.com/",
		Expires:       2 * time.Minute,
	})
	require.NoError(t, err)
	require.NotNil(t, svc)

	_, err = svc.PresignPostImage(ctx, "alice", "notes.txt", "text/plain")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	res, err := svc.PresignPostImage(ctx, "alice", "dinner.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, res.Key)
	assert.Contains(t, res.UploadURL, "localhost:9000/whereat-test/"+res.Key)
	assert.Contains(t, res.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.ImageURL)
	assert.Equal(t, 120, res.ExpiresIn)
}
