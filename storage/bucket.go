// Package storage wraps the S3 API surface this application depends on:
// put/stat/copy/delete by key plus presigned download URLs. File bytes live
// here; ownership and naming live in the database.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Odiedo123/Tenacity/config"
)

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	// ObjectID is the version id of the stored object when the bucket is
	// versioned, or the ETag otherwise. Used for unambiguous deletes.
	ObjectID string
}

// Bucket is an S3 (or S3-compatible) client scoped to a single bucket.
type Bucket struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	bucket  string
}

// NewBucket creates an S3 client from application configuration.
func NewBucket(ctx context.Context, cfg config.AppConfig) (*Bucket, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}

	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.S3ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	client := awss3.NewFromConfig(awsCfg, s3Opts...)
	return &Bucket{
		client:  client,
		presign: awss3.NewPresignClient(client),
		bucket:  cfg.S3Bucket,
	}, nil
}

// Put writes data from reader to the given key and returns the stored object's metadata.
func (b *Bucket) Put(ctx context.Context, key string, reader io.Reader, contentType string) (ObjectInfo, error) {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := b.client.PutObject(ctx, input)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	info := ObjectInfo{
		Key:          key,
		ContentType:  contentType,
		LastModified: time.Now(),
		ObjectID:     aws.ToString(out.VersionId),
	}
	return info, nil
}

// Stat fetches size, content type and upload time for the object at key.
func (b *Bucket) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: s3 head %s: %w", key, err)
	}

	info := ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	info.ObjectID = aws.ToString(out.VersionId)
	return info, nil
}

// Copy duplicates the object at srcKey to dstKey within the bucket.
func (b *Bucket) Copy(ctx context.Context, srcKey, dstKey string) error {
	source := url.PathEscape(b.bucket + "/" + srcKey)
	_, err := b.client.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(source),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 copy %s -> %s: %w", srcKey, dstKey, err)
	}
	return nil
}

// Delete removes the object at key. A non-empty objectID targets that exact
// version when the bucket keeps multiple versions per key.
func (b *Bucket) Delete(ctx context.Context, key, objectID string) error {
	input := &awss3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}
	if objectID != "" {
		input.VersionId = aws.String(objectID)
	}
	if _, err := b.client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", key, err)
	}
	return nil
}

// SignedURL returns a pre-signed GET URL valid for the given duration.
func (b *Bucket) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := b.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("storage: s3 presign %s: %w", key, err)
	}
	return req.URL, nil
}
