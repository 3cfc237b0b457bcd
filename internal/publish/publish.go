// Package publish uploads a build output directory to S3.
//
// Artifacts are uploaded first and the manifest last, so a reader that
// finds a manifest under the prefix can always resolve every file it
// names. With Prune set, objects under the prefix that are not part of the
// build are deleted afterwards.
package publish

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xink-dev/xink/internal/config"
	"github.com/xink-dev/xink/internal/errors"
	"github.com/xink-dev/xink/pkg/manifest"
)

// DefaultRegion is used when publish.region is empty.
const DefaultRegion = "us-east-1"

// Client is the subset of the S3 API used by the publisher.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Options configures a Publisher.
type Options struct {
	// Bucket and Prefix locate the upload. Prefix may be empty.
	Bucket string
	Prefix string

	// Prune deletes objects under Prefix that are not part of the build.
	Prune bool

	// DryRun lists what would be uploaded without calling S3.
	DryRun bool

	Logger *slog.Logger
}

// Result summarizes a publish.
type Result struct {
	Uploaded []string
	Deleted  []string
	Bytes    int64
}

// Publisher uploads build output through a Client.
type Publisher struct {
	client  Client
	options Options
	logger  *slog.Logger
}

// New creates a publisher.
func New(client Client, options Options) *Publisher {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:  client,
		options: options,
		logger:  logger.With("component", "publish"),
	}
}

// NewClient creates an S3 client for cfg. Credentials come from the
// standard AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// environment variables. A custom endpoint switches to path-style
// addressing, as S3-compatible stores usually require.
func NewClient(cfg config.PublishConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("E144").WithDetail("publish.bucket is empty")
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}

func envCredentials(ctx context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.New("E146").
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return creds, nil
}

// Publish uploads every file under dir. dir must contain a manifest.
func (p *Publisher) Publish(ctx context.Context, dir string) (*Result, error) {
	if p.options.Bucket == "" {
		return nil, errors.New("E144").WithDetail("publish.bucket is empty")
	}

	manifestPath := filepath.Join(dir, manifest.FileName)
	if _, err := manifest.Read(manifestPath); err != nil {
		return nil, errors.New("E220").WithFile(manifestPath).Wrap(err)
	}

	files, err := collect(dir)
	if err != nil {
		return nil, errors.New("E143").WithDetail("reading build output").Wrap(err)
	}

	res := &Result{}
	keep := make(map[string]bool, len(files))
	for _, rel := range files {
		key := p.key(rel)
		keep[key] = true

		n, err := p.upload(ctx, filepath.Join(dir, filepath.FromSlash(rel)), key)
		if err != nil {
			return res, err
		}
		res.Uploaded = append(res.Uploaded, key)
		res.Bytes += n
	}

	if p.options.Prune {
		deleted, err := p.prune(ctx, keep)
		res.Deleted = deleted
		if err != nil {
			return res, err
		}
	}

	p.logger.Info("published",
		"bucket", p.options.Bucket,
		"prefix", p.options.Prefix,
		"files", len(res.Uploaded),
		"deleted", len(res.Deleted),
		"bytes", res.Bytes,
		"dry_run", p.options.DryRun,
	)
	return res, nil
}

func (p *Publisher) key(rel string) string {
	prefix := strings.Trim(p.options.Prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

func (p *Publisher) upload(ctx context.Context, file, key string) (int64, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, errors.New("E143").WithFile(file).Wrap(err)
	}

	p.logger.Debug("upload", "key", key, "bytes", len(data))
	if p.options.DryRun {
		return int64(len(data)), nil
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.options.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return 0, errors.New("E146").WithDetailf("uploading %s", key).Wrap(err)
	}
	return int64(len(data)), nil
}

func (p *Publisher) prune(ctx context.Context, keep map[string]bool) ([]string, error) {
	prefix := strings.Trim(p.options.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	var stale []string
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.options.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.New("E146").WithDetail("listing objects").Wrap(err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && !keep[*obj.Key] {
				stale = append(stale, *obj.Key)
			}
		}
	}
	sort.Strings(stale)

	var deleted []string
	for _, key := range stale {
		if !p.options.DryRun {
			_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(p.options.Bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return deleted, errors.New("E146").WithDetailf("deleting %s", key).Wrap(err)
			}
		}
		deleted = append(deleted, key)
	}
	return deleted, nil
}

// collect lists the files under dir as slash paths, sorted, with the
// manifest last.
func collect(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel != manifest.FileName {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return append(files, manifest.FileName), nil
}

func contentType(key string) string {
	switch ext := path.Ext(key); ext {
	case ".go":
		return "text/x-go; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
