package awsconfig

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

// Load S3/SES/SNS 클라이언트 공용 AWS 설정
// 키가 모두 주어지면 정적 자격 증명, 아니면 기본 자격 증명 체인(env, ~/.aws, IAM role)
func Load(ctx context.Context, region, accessKeyID, secretAccessKey string) aws.Config {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		// 자격 증명이 없어도 서버는 기동 (발송 시점에 실패)
		logger.Warn("Failed to load AWS config, using region only", map[string]interface{}{
			"region": region,
			"error":  err.Error(),
		})
		return aws.Config{Region: region}
	}
	return cfg
}
