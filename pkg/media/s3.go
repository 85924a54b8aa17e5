package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client presigns uploads against AWS S3 or an S3 compatible service such as MinIO.
type S3Client struct {
	presignClient *s3.PresignClient
	bucket        string
}

func NewS3Client(ctx context.Context, conf Config) (*S3Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.Region),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     conf.AccessKey,
					SecretAccessKey: conf.SecretKey,
				}, nil
			})),
	}
	if conf.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(conf.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// path style keeps MinIO style endpoints working
		o.UsePathStyle = conf.Endpoint != ""
	})
	return &S3Client{
		presignClient: s3.NewPresignClient(client),
		bucket:        conf.Bucket,
	}, nil
}

// PresignUpload returns a PUT URL that accepts exactly the given content type.
func (s *S3Client) PresignUpload(ctx context.Context, key string, contentType string, expires time.Duration) (string, error) {
	result, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return result.URL, nil
}
