package objstore

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client adapts an *s3.Client into an ObjectClient for a fixed bucket.
type S3Client struct {
	API    *s3.Client
	Bucket string
}

// PutObject implements ObjectClient.
func (c *S3Client) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := c.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return err
}

// GetObject implements ObjectClient.
func (c *S3Client) GetObject(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := c.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(key),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return readAll(out.Body, nil, func(error) bool { return false })
}

// DeleteObject implements ObjectClient.
func (c *S3Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.API.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(key),
	})
	return err
}
