package repositories

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"requira/internal/config"
	"requira/internal/helpers"
)

// StoredExport describes where an exported document ended up
type StoredExport struct {
	Location    string `json:"location"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ExportStore persists rendered documents
type ExportStore interface {
	Save(ctx context.Context, name string, data []byte) (*StoredExport, error)
}

func detectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// LocalExportStore writes documents into a directory on disk
type LocalExportStore struct {
	dir string
}

// NewLocalExportStore creates a store rooted at dir
func NewLocalExportStore(dir string) *LocalExportStore {
	return &LocalExportStore{dir: dir}
}

// Save writes data to <dir>/<name>, replacing any previous export of the
// same name
func (l *LocalExportStore) Save(ctx context.Context, name string, data []byte) (*StoredExport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid export file name %q", name)
	}

	target := filepath.Join(l.dir, name)
	if err := helpers.WriteFileAtomic(target, data); err != nil {
		return nil, fmt.Errorf("failed to save export: %w", err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	return &StoredExport{
		Location:    abs,
		ContentType: detectContentType(data),
		Size:        int64(len(data)),
	}, nil
}

// S3API is the subset of the S3 client used for uploads
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// StorageError describes a failed object storage operation
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// S3ExportStore uploads documents to an S3 bucket
type S3ExportStore struct {
	client S3API
	bucket string
	prefix string
}

// NewS3ExportStore builds an S3 client from the default AWS credential
// chain and the export configuration
func NewS3ExportStore(ctx context.Context, cfg config.S3Config) (*S3ExportStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return NewS3ExportStoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3ExportStoreWithClient creates a store over an existing client
func NewS3ExportStoreWithClient(client S3API, bucket, prefix string) *S3ExportStore {
	return &S3ExportStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key a document name is stored under
func (s *S3ExportStore) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Save uploads data as a single object
func (s *S3ExportStore) Save(ctx context.Context, name string, data []byte) (*StoredExport, error) {
	key := s.Key(name)
	contentType := detectContentType(data)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, &StorageError{Op: "upload", Bucket: s.bucket, Key: key, Err: err}
	}

	return &StoredExport{
		Location:    fmt.Sprintf("s3://%s/%s", s.bucket, key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// MultiExportStore saves to each store in turn. The first store is the
// primary one and its result is returned.
type MultiExportStore struct {
	stores []ExportStore
}

// NewMultiExportStore combines stores, skipping nil entries
func NewMultiExportStore(stores ...ExportStore) *MultiExportStore {
	m := &MultiExportStore{}
	for _, s := range stores {
		if s != nil {
			m.stores = append(m.stores, s)
		}
	}
	return m
}

// Save writes data to every store in order and stops at the first failure
func (m *MultiExportStore) Save(ctx context.Context, name string, data []byte) (*StoredExport, error) {
	if len(m.stores) == 0 {
		return nil, fmt.Errorf("no export store configured")
	}

	var primary *StoredExport
	for i, store := range m.stores {
		stored, err := store.Save(ctx, name, data)
		if err != nil {
			return primary, err
		}
		if i == 0 {
			primary = stored
		}
	}
	return primary, nil
}
