package ords

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Config locates the bucket the feed is published to. Credentials come
// from the default AWS chain.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for S3-compatible stores such as MinIO
	// PathStyle addresses objects as endpoint/bucket/key.
	PathStyle bool
}

// Publisher uploads feeds to S3.
type Publisher struct {
	client *s3.Client
	bucket string
}

// NewPublisher builds a client for cfg.
func NewPublisher(ctx context.Context, cfg S3Config, optFns ...func(*config.LoadOptions) error) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("ords s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, append([]func(*config.LoadOptions) error{config.WithRegion(region)}, optFns...)...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Publisher{client: client, bucket: cfg.Bucket}, nil
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(client *s3.Client, bucket string) *Publisher {
	return &Publisher{client: client, bucket: bucket}
}

// Publish uploads a CSV feed under key, replacing any previous version.
func (p *Publisher) Publish(ctx context.Context, key string, feed []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(feed),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("publish s3://%s/%s: %w", p.bucket, key, err)
	}
	log.Info().Str("bucket", p.bucket).Str("key", key).Int("bytes", len(feed)).Msg("Published ORDS feed")
	return nil
}
