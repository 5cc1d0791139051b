package filesvc

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core"
)

// objectPutDeleter is the part of *s3.Client used to store files.
type objectPutDeleter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Storage struct {
	client    objectPutDeleter
	bucket    string
	publicURL string
}

var _ core.FileStorage = (*s3Storage)(nil)

// NewS3Storage stores files in an S3 compatible bucket.
func NewS3Storage(ctx context.Context, conf *core.Config) (*s3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(conf.Storage.S3Region)}
	if conf.Storage.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.Storage.S3AccessKey, conf.Storage.S3SecretKey, "")))
	}
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if conf.Storage.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Storage.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Storage(client, conf), nil
}

func newS3Storage(client objectPutDeleter, conf *core.Config) *s3Storage {
	publicURL := conf.Storage.PublicBaseURL
	if publicURL == "" {
		publicURL = "https://" + conf.Storage.S3Bucket + ".s3." + conf.Storage.S3Region + ".amazonaws.com"
	}
	return &s3Storage{
		client:    client,
		bucket:    conf.Storage.S3Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *s3Storage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading %s", key)
	}
	return s.publicURL + "/" + key, nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrapf(err, "deleting %s", key)
}
