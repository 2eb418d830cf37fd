// Package s3export publishes start-time records, and optionally the
// composite video, to an S3 bucket.
package s3export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/user/framesync/pkg/adapters/jsonexport"
	"github.com/user/framesync/pkg/ports"
)

// ErrNoBucket is returned when no bucket is configured.
var ErrNoBucket = errors.New("s3export: bucket not set")

// ClientAPI is the subset of *s3.Client used by the exporter. Records go
// through PutObject, videos through the multipart uploader.
type ClientAPI interface {
	manager.UploadAPIClient
}

// Options configures the exporter.
type Options struct {
	Bucket string
	Prefix string
	// Region and Profile fall back to the standard AWS configuration chain.
	Region  string
	Profile string
	// UsePathStyle forces path-style addressing for S3-compatible stores.
	UsePathStyle bool
	// UploadVideo also uploads the composite video next to the record.
	UploadVideo bool
	// PartSize is the multipart chunk size for the video. Zero keeps the
	// uploader default; smaller values are raised to manager.MinUploadPartSize.
	PartSize int64
}

// Exporter uploads <Prefix>/<BaseName>_start.json.
type Exporter struct {
	client   ClientAPI
	uploader *manager.Uploader
	opts     Options
	open     func(name string) (io.ReadCloser, error)
}

// New creates an Exporter from the default AWS configuration chain.
func New(ctx context.Context, opts Options) (*Exporter, error) {
	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3export: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewWithClient(client, opts), nil
}

// NewWithClient creates an Exporter around an existing client.
func NewWithClient(client ClientAPI, opts Options) *Exporter {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if opts.PartSize > 0 {
			u.PartSize = max(opts.PartSize, manager.MinUploadPartSize)
		}
	})
	return &Exporter{
		client:   client,
		uploader: uploader,
		opts:     opts,
		open: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
	}
}

// Name implements ports.ResultExporter.
func (e *Exporter) Name() string { return "s3" }

// Export implements ports.ResultExporter. The returned location is the
// s3:// URL of the record.
func (e *Exporter) Export(ctx context.Context, rec ports.StartRecord) (string, error) {
	if e.opts.Bucket == "" {
		return "", ErrNoBucket
	}

	data, err := jsonexport.Marshal(rec)
	if err != nil {
		return "", err
	}
	key := e.key(rec.BaseName() + "_start.json")
	if err := e.put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", err
	}

	if e.opts.UploadVideo && rec.Video != "" {
		f, err := e.open(rec.Video)
		if err != nil {
			return "", fmt.Errorf("s3export: %w", err)
		}
		defer f.Close()
		if err := e.upload(ctx, e.key(filepath.Base(rec.Video)), f, "video/mp4"); err != nil {
			return "", err
		}
	}

	return "s3://" + e.opts.Bucket + "/" + key, nil
}

func (e *Exporter) key(name string) string {
	prefix := strings.Trim(e.opts.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (e *Exporter) put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3export: put %s: %w", key, err)
	}
	return nil
}

// upload streams body in parts, so videos past the 5 GB single-request
// limit still go through.
func (e *Exporter) upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3export: upload %s: %w", key, err)
	}
	return nil
}

var _ ports.ResultExporter = (*Exporter)(nil)
