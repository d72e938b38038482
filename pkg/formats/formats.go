// Package formats serializes column sets into container formats: Arrow IPC,
// Parquet, Avro and JSON Lines.
package formats

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/compression"
)

// Format represents an output container format
type Format string

const (
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// Avro is an Apache Avro object container file
	Avro Format = "avro"
	// JSONL is newline-delimited JSON, one object per row
	JSONL Format = "jsonl"
)

// Writer serializes column sets to an underlying stream
type Writer interface {
	// WriteColumnSet writes every row of set
	WriteColumnSet(set *columnar.ColumnSet) error
	// Close finalizes the container; it does not close the underlying stream
	Close() error
	// Format returns the container format
	Format() Format
	// BytesWritten returns bytes written to the underlying stream
	BytesWritten() int64
	// RecordsWritten returns rows written
	RecordsWritten() int64
}

// WriterConfig configures writers
type WriterConfig struct {
	Format Format
	// Compression is format specific: an IPC body codec for Arrow, a column
	// codec for Parquet, an OCF codec for Avro or a stream codec for JSONL.
	// Empty selects the format default.
	Compression string
	// BatchSize caps the rows per Arrow record batch and Avro append
	BatchSize int
	// RowGroupSize caps the rows per Parquet row group
	RowGroupSize int64
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Format:       Arrow,
		BatchSize:    64 * 1024,
		RowGroupSize: 1024 * 1024,
	}
}

// NewWriter creates a writer for config.Format
func NewWriter(w io.Writer, config *WriterConfig) (Writer, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	cfg := *config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.RowGroupSize <= 0 {
		cfg.RowGroupSize = DefaultWriterConfig().RowGroupSize
	}

	cw := &countingWriter{w: w}
	switch cfg.Format {
	case Arrow, "":
		return newArrowWriter(cw, &cfg)
	case Parquet:
		return newParquetWriter(cw, &cfg)
	case Avro:
		return newAvroWriter(cw, &cfg)
	case JSONL:
		return newJSONLWriter(cw, &cfg)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}
}

// FormatInfo provides information about a format
type FormatInfo struct {
	Format             Format
	Name               string
	FileExtension      string
	MIMEType           string
	DefaultCompression string
	Compressions       []string
}

// GetFormatInfo returns information about a format, or nil if unknown
func GetFormatInfo(format Format) *FormatInfo {
	switch format {
	case Arrow:
		return &FormatInfo{
			Format:             Arrow,
			Name:               "Apache Arrow IPC",
			FileExtension:      ".arrow",
			MIMEType:           "application/vnd.apache.arrow.file",
			DefaultCompression: "none",
			Compressions:       []string{"none", "zstd", "lz4"},
		}
	case Parquet:
		return &FormatInfo{
			Format:             Parquet,
			Name:               "Apache Parquet",
			FileExtension:      ".parquet",
			MIMEType:           "application/vnd.apache.parquet",
			DefaultCompression: "snappy",
			Compressions:       []string{"none", "snappy", "gzip", "zstd", "lz4", "brotli"},
		}
	case Avro:
		return &FormatInfo{
			Format:             Avro,
			Name:               "Apache Avro",
			FileExtension:      ".avro",
			MIMEType:           "application/avro",
			DefaultCompression: "snappy",
			Compressions:       []string{"none", "snappy", "deflate"},
		}
	case JSONL:
		return &FormatInfo{
			Format:             JSONL,
			Name:               "JSON Lines",
			FileExtension:      ".jsonl",
			MIMEType:           "application/jsonl",
			DefaultCompression: "none",
			Compressions: []string{
				string(compression.None), string(compression.Gzip), string(compression.Zstd),
				string(compression.Snappy), string(compression.S2), string(compression.LZ4),
				string(compression.Deflate),
			},
		}
	default:
		return nil
	}
}

// ParseFormat resolves a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case Arrow, Parquet, Avro, JSONL:
		return f, nil
	case "ipc", "feather":
		return Arrow, nil
	case "ndjson", "json":
		return JSONL, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// FormatFromPath infers the format from the output path extension. A
// trailing compression suffix such as ".gz" is ignored.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, alg := range []compression.Algorithm{
		compression.Gzip, compression.Zstd, compression.Snappy,
		compression.S2, compression.LZ4, compression.Deflate,
	} {
		if ext == alg.Extension() {
			ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
			break
		}
	}
	switch ext {
	case ".arrow", ".ipc", ".feather":
		return Arrow, true
	case ".parquet", ".pq":
		return Parquet, true
	case ".avro":
		return Avro, true
	case ".jsonl", ".ndjson", ".json":
		return JSONL, true
	default:
		return "", false
	}
}

// countingWriter tracks bytes passed to the underlying writer
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
