// Package storage uploads menu images to object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	client S3API
	bucket string
}

func NewS3Store(client S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Put stores a publicly readable object and returns its URL.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3Store) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// ContentTypeFor maps an image file name to its MIME type, defaulting to JPEG.
func ContentTypeFor(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// ObjectKey builds a collision free key under prefix from a client supplied
// file name, dropping any directory components.
func ObjectKey(prefix, fileName string) (string, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if base == "" || base == "." || base == "/" || base == ".." {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	base = strings.ReplaceAll(base, " ", "-")
	return path.Join(prefix, uuid.NewString()[:8]+"-"+base), nil
}
