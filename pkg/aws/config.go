package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const localRegion = "us-east-1"

// LoadAWSConfig loads the default SDK config. When AWS_ENDPOINT (or one of the
// service specific overrides) is set, every client built from the returned
// config targets that URL with static credentials, which is how LocalStack
// is used in development.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	endpoint := endpointFromEnv()

	cfg, err := config.LoadDefaultConfig(ctx, localOptions(endpoint)...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	if endpoint == "" {
		return cfg, nil
	}

	signingRegion := cfg.Region
	if signingRegion == "" {
		signingRegion = os.Getenv("AWS_REGION")
	}

	cfg.EndpointResolverWithOptions = sdkaws.EndpointResolverWithOptionsFunc(
		func(service, region string, _ ...interface{}) (sdkaws.Endpoint, error) {
			sr := signingRegion
			if sr == "" {
				sr = region
			}
			return sdkaws.Endpoint{
				URL:               endpoint,
				SigningRegion:     sr,
				HostnameImmutable: true,
			}, nil
		})

	return cfg, nil
}

// localOptions pins region and static credentials for an endpoint override.
// Keys default to LocalStack's "test" pair.
func localOptions(endpoint string) []func(*config.LoadOptions) error {
	if endpoint == "" {
		return nil
	}
	opts := []func(*config.LoadOptions) error{}
	if os.Getenv("AWS_REGION") == "" {
		opts = append(opts, config.WithRegion(localRegion))
	}
	accessKey := getEnvDefault("AWS_ACCESS_KEY_ID", "test")
	secretKey := getEnvDefault("AWS_SECRET_ACCESS_KEY", "test")
	opts = append(opts, config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
	))
	return opts
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func endpointFromEnv() string {
	for _, key := range []string{"AWS_SQS_ENDPOINT", "AWS_S3_ENDPOINT", "AWS_ENDPOINT"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
