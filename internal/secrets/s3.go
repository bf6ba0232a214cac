package secrets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/windoze95/nickate-skill/internal/config"
)

// s3API is the subset of the S3 client used for conditional writes.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps each secret as a server-side encrypted object in a bucket.
// CompareAndSwap uses conditional PutObject on the object's ETag.
type S3Store struct {
	client     s3API
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	prefix     string
}

// NewS3Store creates an S3Store from the app config.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.EnvVars.S3Bucket,
		prefix:     strings.TrimPrefix(cfg.EnvVars.SecretsPrefix, "/"),
	}, nil
}

// Get downloads the object holding the secret.
func (s *S3Store) Get(ctx context.Context, name string) (string, error) {
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", NotFoundError{Name: name}
		}
		return "", fmt.Errorf("failed to download from S3: %w", err)
	}
	return string(buf.Bytes()), nil
}

// Put uploads the secret, replacing any previous object.
func (s *S3Store) Put(ctx context.Context, name, value string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(s.objectKey(name)),
		Body:                 strings.NewReader(value),
		ContentType:          aws.String("text/plain"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// CompareAndSwap replaces the object only if it still holds old. The write is
// conditioned on the ETag that was read, so a concurrent writer makes it fail
// with PreconditionFailed instead of being overwritten.
func (s *S3Store) CompareAndSwap(ctx context.Context, name, old, new string) (bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return false, NotFoundError{Name: name}
		}
		return false, fmt.Errorf("failed to read from S3: %w", err)
	}
	defer out.Body.Close()

	current, err := io.ReadAll(out.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read from S3: %w", err)
	}
	if string(current) != old {
		return false, nil
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(s.objectKey(name)),
		Body:                 strings.NewReader(new),
		ContentType:          aws.String("text/plain"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
		IfMatch:              out.ETag,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return false, nil
			}
		}
		return false, fmt.Errorf("failed to upload to S3: %w", err)
	}
	return true, nil
}

// objectKey generates the S3 key for a secret name.
func (s *S3Store) objectKey(name string) string {
	return fmt.Sprintf("%ssecrets/%s", s.prefix, name)
}
