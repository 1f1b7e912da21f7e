// Package export serializes query results to CSV or JSON and uploads them
// to an object store. Callers depend only on the Sink interface — never on
// a specific provider package.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Format selects the serialization of an exported result.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a caller-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", errs.Newf(errs.KindInvalidInput, "unsupported export format %q", s)
	}
}

func (f Format) contentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Sink is the object-store contract an export provider implements.
type Sink interface {
	// Put uploads size bytes from body to key inside bucket.
	Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error

	// PresignGet returns a time-limited download URL for the object at key.
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases held resources.
	Close() error
}

// Result describes one completed export.
type Result struct {
	Key         string `json:"key"`
	Bucket      string `json:"bucket"`
	Format      Format `json:"format"`
	SizeBytes   int64  `json:"sizeBytes"`
	RowCount    int    `json:"rowCount"`
	DownloadURL string `json:"downloadUrl"`
}

// Exporter serializes query results and writes them through a Sink.
type Exporter struct {
	sink   Sink
	bucket string
	urlTTL time.Duration
	log    zerolog.Logger
}

// NewExporter builds an Exporter writing into bucket on sink.
func NewExporter(sink Sink, bucket string, log zerolog.Logger) *Exporter {
	return &Exporter{
		sink:   sink,
		bucket: bucket,
		urlTTL: 15 * time.Minute,
		log:    log.With().Str("component", "export").Logger(),
	}
}

// Export serializes res in the given format, uploads it under a generated
// key, and returns the object's location with a presigned download URL.
func (e *Exporter) Export(ctx context.Context, res *db.QueryResult, format Format) (*Result, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatCSV:
		err = EncodeCSV(&buf, res)
	case FormatJSON:
		err = EncodeJSON(&buf, res)
	default:
		return nil, errs.Newf(errs.KindInvalidInput, "unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s.%s",
		time.Now().UTC().Format("2006-01-02"), uuid.NewString(), format)
	size := int64(buf.Len())

	if err := e.sink.Put(ctx, e.bucket, key, format.contentType(), &buf, size); err != nil {
		return nil, err
	}

	url, err := e.sink.PresignGet(ctx, e.bucket, key, e.urlTTL)
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("key", key).
		Str("format", string(format)).
		Int64("size_bytes", size).
		Int("rows", len(res.Rows)).
		Msg("result exported")

	return &Result{
		Key:         key,
		Bucket:      e.bucket,
		Format:      format,
		SizeBytes:   size,
		RowCount:    len(res.Rows),
		DownloadURL: url,
	}, nil
}

// Close closes the underlying sink.
func (e *Exporter) Close() error {
	return e.sink.Close()
}
