package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// DirSource reads seed files from a local directory.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, name))
}

// S3Config options for reading seed files from S3 or an S3 compatible
// service
type S3Config struct {
	Region          string // AWS region
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing
}

// downloader is the part of manager.Downloader used by S3Source.
type downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// S3Source reads seed files stored under Prefix in Bucket.
type S3Source struct {
	Bucket     string
	Prefix     string
	downloader downloader
}

// NewS3Source creates an S3 seed source
func NewS3Source(ctx context.Context, cfg S3Config, bucket, prefix string) (*S3Source, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)
	return &S3Source{
		Bucket:     bucket,
		Prefix:     strings.Trim(prefix, "/"),
		downloader: manager.NewDownloader(client),
	}, nil
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := name
	if s.Prefix != "" {
		key = path.Join(s.Prefix, name)
	}

	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.Bucket, key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.Bucket, key, err)
	}

	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// OpenSource returns the source named by rawURL: s3://bucket/prefix,
// file:///dir or a bare directory path.
func OpenSource(ctx context.Context, rawURL string, cfg S3Config) (Source, error) {
	if rawURL == "" {
		return nil, errors.New("seed url is empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "s3":
		return NewS3Source(ctx, cfg, u.Host, u.Path)
	case "file":
		return DirSource{Dir: u.Path}, nil
	case "":
		return DirSource{Dir: rawURL}, nil
	default:
		return nil, fmt.Errorf("unsupported seed url scheme %q", u.Scheme)
	}
}
