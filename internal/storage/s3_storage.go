package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedLocator s3:// 또는 http(s):// 가 아닌 서류 위치
var ErrUnsupportedLocator = errors.New("unsupported storage locator")

// S3Storage 제출 서류 열람 링크 발급
// 업로드는 하지 않으며 이미 저장된 위치(locator)만 다룬다
type S3Storage struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// NewS3Storage cfg 기반 S3 presign 클라이언트 생성
func NewS3Storage(cfg aws.Config, bucket string, expiry time.Duration) *S3Storage {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Storage{
		presigner: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:    bucket,
		expiry:    expiry,
	}
}

// ParseLocator s3://bucket/key 형식을 분해 (버킷이 없으면 기본 버킷)
func ParseLocator(locator, defaultBucket string) (bucket, key string, err error) {
	u, err := url.Parse(locator)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedLocator, locator)
	}
	bucket = u.Host
	if bucket == "" {
		bucket = defaultBucket
	}
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedLocator, locator)
	}
	return bucket, key, nil
}

// IsDirectURL http(s) 위치는 그대로 사용
func IsDirectURL(locator string) bool {
	return strings.HasPrefix(locator, "https://") || strings.HasPrefix(locator, "http://")
}

// PresignURL 서류 열람용 임시 GET URL
func (s *S3Storage) PresignURL(ctx context.Context, locator string) (string, error) {
	if IsDirectURL(locator) {
		return locator, nil
	}

	bucket, key, err := ParseLocator(locator, s.bucket)
	if err != nil {
		return "", err
	}

	presignedReq, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedReq.URL, nil
}
