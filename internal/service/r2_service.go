package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/fediplan/configs"
)

// R2Service keeps a mirror copy of every uploaded file in Cloudflare R2.
// The mirror is what lets a user re-create a post by hand if an edit loses
// it remotely.
type R2Service struct {
	config cfg.Config
	client *s3.Client
}

func NewR2Service(c cfg.Config) (*R2Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.R2.AccessKey, c.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID))
	})

	return &R2Service{config: c, client: client}, nil
}

func (r *R2Service) Upload(ctx context.Context, key string, file []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *R2Service) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", r.config.R2.PublicURL, key)
}
