package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fortemi/matric/internal/matricerr"
)

// S3Config configures the S3-compatible blob backend. Endpoint is optional;
// when set the client targets a self-hosted S3-compatible service (MinIO,
// Hetzner Object Storage, ...) with path-style addressing, mirroring the
// teacher's multi-cloud S3 helpers.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Backend stores blobs as objects in a single bucket, keyed by the same
// relative path the filesystem backend uses.
type S3Backend struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3Backend builds a backend from cfg. It does not touch the network;
// call Validate to confirm connectivity and bucket access.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, matricerr.Configf("blobstore: load aws config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
	}, nil
}

func (s *S3Backend) Write(ctx context.Context, path string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return matricerr.Internalf(err, "blobstore: s3 put %s", path)
	}
	return nil
}

func (s *S3Backend) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, matricerr.NotFoundf("blob not found: %s", path)
		}
		return nil, matricerr.Internalf(err, "blobstore: s3 get %s", path)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, matricerr.Internalf(err, "blobstore: s3 read body %s", path)
	}
	return data, nil
}

func (s *S3Backend) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return matricerr.Internalf(err, "blobstore: s3 delete %s", path)
	}
	return nil
}

func (s *S3Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, matricerr.Internalf(err, "blobstore: s3 head %s", path)
}

func (s *S3Backend) Validate(ctx context.Context) error {
	if s.bucket == "" {
		return fmt.Errorf("blobstore: s3 bucket not configured")
	}
	return RoundTripValidate(ctx, s)
}

var _ Backend = (*S3Backend)(nil)
