package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	appconfig "github.com/wolfman30/orch-console/internal/config"
	"github.com/wolfman30/orch-console/internal/fileref"
	"github.com/wolfman30/orch-console/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same LocalStack/production wiring. Static keys win over the default chain.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

// BuildURLResolver returns the presigner that turns s3:// upload references
// into HTTPS URLs. AWS_ENDPOINT_OVERRIDE points it at LocalStack.
func BuildURLResolver(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*fileref.Presigner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	presigner := fileref.NewS3Presigner(awsCfg, cfg.AWSEndpointOverride, cfg.S3PresignTTL)
	logger.Info("s3 references enabled", "region", cfg.AWSRegion, "endpoint_override", cfg.AWSEndpointOverride != "", "ttl", cfg.S3PresignTTL.String())
	return presigner, nil
}
