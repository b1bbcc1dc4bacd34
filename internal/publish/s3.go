// Package publish uploads run artifacts (report, graph) to object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sensorguard/internal/config"
)

// ObjectPutter is the subset of *s3.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Publisher struct {
	client ObjectPutter
	cfg    config.S3Config
	logger *slog.Logger
}

func NewS3Publisher(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}
	return NewS3PublisherWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg, logger), nil
}

func NewS3PublisherWithClient(client ObjectPutter, cfg config.S3Config, logger *slog.Logger) *S3Publisher {
	return &S3Publisher{client: client, cfg: cfg, logger: logger}
}

// Key returns the object key for a local artifact uploaded at runAt.
// Keys are grouped per run: <prefix>/<yyyymmddThhmmssZ>/<file name>.
func (p *S3Publisher) Key(localPath string, runAt time.Time) string {
	stamp := runAt.UTC().Format("20060102T150405Z")
	return path.Join(strings.Trim(p.cfg.Prefix, "/"), stamp, filepath.Base(localPath))
}

// Publish uploads each non-empty path and returns the object keys in order.
func (p *S3Publisher) Publish(ctx context.Context, runAt time.Time, paths ...string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, local := range paths {
		if local == "" {
			continue
		}
		key, err := p.upload(ctx, local, runAt)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *S3Publisher) upload(ctx context.Context, local string, runAt time.Time) (string, error) {
	f, err := os.Open(local)
	if err != nil {
		return "", fmt.Errorf("open artifact %s: %w", local, err)
	}
	defer f.Close()

	key := p.Key(local, runAt)
	contentType := mime.TypeByExtension(filepath.Ext(local))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("S3 put object %s: %w", key, err)
	}
	if p.logger != nil {
		p.logger.Info("artifact published", "bucket", p.cfg.Bucket, "key", key)
	}
	return key, nil
}
