package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store implements Store against a bucket/prefix for SAVING_MODE =
// remote-object-store. It never backs a container bind mount directly,
// since the invoker's identity mounts require real host paths (§4.4). No
// code in this repository copies its objects into the local storage roots.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store loads AWS configuration from the environment (region,
// credentials) through the AWS SDK v2 default configuration chain.
func NewS3Store(ctx context.Context, bucket, prefix, region string) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *S3Store) key(jobID, name string) string {
	if s.prefix == "" {
		return jobID + "/" + name
	}
	return s.prefix + "/" + jobID + "/" + name
}

func (s *S3Store) Put(ctx context.Context, jobID, name string, content []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(jobID, name)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %q: %w", name, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, jobID, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(jobID, name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download %q: %w", name, err)
	}
	return out.Body, nil
}

func (s *S3Store) List(ctx context.Context, jobID string) ([]string, error) {
	prefix := s.key(jobID, "")
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list job namespace: %w", err)
	}

	names := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		names = append(names, strings.TrimPrefix(aws.ToString(obj.Key), prefix))
	}
	sort.Strings(names)
	return names, nil
}

func (s *S3Store) Delete(ctx context.Context, jobID string) error {
	names, err := s.List(ctx, jobID)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(jobID, name)),
		}); err != nil {
			return fmt.Errorf("failed to delete %q: %w", name, err)
		}
	}
	return nil
}
