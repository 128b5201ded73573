package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name       string
		locator    string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{name: "bucket and key", locator: "s3://ngo-docs/org-1/registration.pdf", wantBucket: "ngo-docs", wantKey: "org-1/registration.pdf"},
		{name: "default bucket", locator: "s3:///org-1/tax.pdf", wantBucket: "fallback", wantKey: "org-1/tax.pdf"},
		{name: "missing key", locator: "s3://ngo-docs/", wantErr: true},
		{name: "other scheme", locator: "ftp://host/file.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := ParseLocator(tt.locator, "fallback")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedLocator)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestS3Storage_PresignURL(t *testing.T) {
	cfg := aws.Config{
		Region:      "ap-northeast-2",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDTEST", "secret", ""),
	}
	s := NewS3Storage(cfg, "ngo-docs", 5*time.Minute)

	t.Run("direct url is returned as is", func(t *testing.T) {
		url, err := s.PresignURL(context.Background(), "https://cdn.example.org/reg.pdf")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.org/reg.pdf", url)
	})

	t.Run("s3 locator is presigned", func(t *testing.T) {
		url, err := s.PresignURL(context.Background(), "s3://ngo-docs/org-1/reg.pdf")
		require.NoError(t, err)
		assert.Contains(t, url, "org-1/reg.pdf")
		assert.True(t, strings.Contains(url, "X-Amz-Signature="))
		assert.Contains(t, url, "X-Amz-Expires=300")
	})

	t.Run("unsupported locator", func(t *testing.T) {
		_, err := s.PresignURL(context.Background(), "blob:1234")
		assert.ErrorIs(t, err, ErrUnsupportedLocator)
	})
}
