package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func init() {
	factory.RegisterWriter("minio", func(def config.WriterDef) (model.Writer, error) {
		return NewMinIOWriter(def.MinIO)
	})
}

const (
	AccessKeyVar = "MIO_ACCESS_KEY_ID"
	SecretKeyVar = "MIO_SECRET_KEY"
)

// MinIOWriter uploads the text report to an S3 compatible bucket.
// It implements the model.Writer interface.
type MinIOWriter struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIOWriter creates a client for the configured endpoint. Credentials
// left empty in the config are read from the environment.
func NewMinIOWriter(cfg config.MinIOConfig) (*MinIOWriter, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio writer requires endpoint and bucket")
	}
	accessKey := cfg.AccessKey
	if accessKey == "" {
		accessKey = os.Getenv(AccessKeyVar)
	}
	secretKey := cfg.SecretKey
	if secretKey == "" {
		secretKey = os.Getenv(SecretKeyVar)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init minio: %w", err)
	}
	return &MinIOWriter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (w *MinIOWriter) Name() string {
	return "minio"
}

// ObjectName returns the key the report of a run is stored under.
func (w *MinIOWriter) ObjectName(report *model.Report) string {
	return path.Join(w.prefix, report.Timestamp.Format(TimestampLayout), path.Base(report.OutputPath))
}

// Write renders the text report and uploads it, creating the bucket if needed.
func (w *MinIOWriter) Write(ctx context.Context, report *model.Report) error {
	exists, err := w.client.BucketExists(ctx, w.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket '%s': %w", w.bucket, err)
	}
	if !exists {
		if err := w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket '%s': %w", w.bucket, err)
		}
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, report.Counts); err != nil {
		return err
	}

	objectName := w.ObjectName(report)
	info, err := w.client.PutObject(ctx, w.bucket, objectName, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}
	log.Printf("Uploaded report to %s/%s (%d bytes)", w.bucket, info.Key, info.Size)
	return nil
}

func (w *MinIOWriter) Close() error {
	return nil
}
