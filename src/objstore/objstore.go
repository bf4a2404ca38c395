package objstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/utils"
)

const defaultRegion = "us-east-1"

// Store reads and writes whole documents at Locations. The S3 client is only
// created when an S3 location is first used.
type Store struct {
	Stdin  io.Reader
	Stdout io.Writer

	s3cfg  config.S3Config
	client *s3.Client
}

func NewStore(s3cfg config.S3Config) *Store {
	return &Store{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		s3cfg:  s3cfg,
	}
}

func (s *Store) Read(ctx context.Context, loc Location) ([]byte, error) {
	switch {
	case loc.IsS3():
		return s.readS3(ctx, loc)
	case loc.IsStdio():
		data, err := io.ReadAll(s.Stdin)
		if err != nil {
			return nil, oops.New(err, "failed to read stdin")
		}
		return data, nil
	}

	data, err := os.ReadFile(loc.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, oops.Input(err, "input file %s does not exist", loc.Path)
	} else if err != nil {
		return nil, oops.New(err, "failed to read %s", loc.Path)
	}
	return data, nil
}

func (s *Store) Write(ctx context.Context, loc Location, data []byte) error {
	switch {
	case loc.IsS3():
		return s.writeS3(ctx, loc, data)
	case loc.IsStdio():
		if _, err := s.Stdout.Write(data); err != nil {
			return oops.New(err, "failed to write stdout")
		}
		return nil
	}

	if err := os.WriteFile(loc.Path, data, 0644); err != nil {
		return oops.New(err, "failed to write %s", loc.Path)
	}
	return nil
}

func (s *Store) s3Client(ctx context.Context) (*s3.Client, error) {
	if s.client != nil {
		return s.client, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(utils.OrDefault(s.s3cfg.Region, defaultRegion)),
	}
	if s.s3cfg.Key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.s3cfg.Key, s.s3cfg.Secret, ""),
		))
	}
	if endpoint := s.s3cfg.Endpoint; endpoint != "" {
		opts = append(opts, awsconfig.WithEndpointResolver(aws.EndpointResolverFunc(func(service, region string) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL: endpoint,
			}, nil
		})))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, oops.New(err, "failed to load S3 configuration")
	}
	s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.s3cfg.PathStyle
	})
	return s.client, nil
}

func (s *Store) readS3(ctx context.Context, loc Location) ([]byte, error) {
	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &loc.Bucket,
		Key:    &loc.Key,
	})
	if err != nil {
		if code := apiErrorCode(err); code == "NoSuchKey" || code == "NoSuchBucket" {
			return nil, oops.Input(err, "%s does not exist", loc)
		}
		return nil, oops.New(err, "failed to fetch %s", loc)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, oops.New(err, "failed to read %s", loc)
	}
	return data, nil
}

func (s *Store) writeS3(ctx context.Context, loc Location, data []byte) error {
	client, err := s.s3Client(ctx)
	if err != nil {
		return err
	}

	contentType := "application/rss+xml"
	if strings.HasSuffix(loc.Key, ".json") {
		contentType = "application/json"
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &loc.Bucket,
		Key:         &loc.Key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		if apiErrorCode(err) == "NoSuchBucket" {
			return oops.Input(err, "bucket %s does not exist", loc.Bucket)
		}
		return oops.New(err, "failed to upload %s", loc)
	}
	return nil
}

func apiErrorCode(err error) string {
	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		return apiError.ErrorCode()
	}
	return ""
}
