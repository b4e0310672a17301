package adapters

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/devenspear/devatar/application/ports/outbound"
	"github.com/devenspear/devatar/config"
)

type s3BlobStore struct {
	s3Svc    *s3.S3
	s3Config *config.S3Config
	logger   outbound.LoggerPort
}

func NewS3BlobStore(s3Svc *s3.S3, s3Config *config.S3Config, logger outbound.LoggerPort) outbound.BlobStorePort {
	return &s3BlobStore{
		s3Svc:    s3Svc,
		s3Config: s3Config,
		logger:   logger,
	}
}

func (s *s3BlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to upload object to S3", map[string]interface{}{
			"bucket": s.s3Config.BucketName,
			"key":    key,
		})
		return "", err
	}

	objectURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Config.BucketName, s.s3Config.Region, key)
	s.logger.DebugWithFields("uploaded object to S3", map[string]interface{}{
		"url":  objectURL,
		"size": len(data),
	})

	return objectURL, nil
}

// SignedReadURL presigns a GET so external vendors can fetch a private blob
// for the TTL window.
func (s *s3BlobStore) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, _ := s.s3Svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	req.SetContext(ctx)

	signedURL, err := req.Presign(ttl)
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to presign S3 read", map[string]interface{}{
			"bucket": s.s3Config.BucketName,
			"key":    key,
		})
		return "", err
	}

	return signedURL, nil
}
