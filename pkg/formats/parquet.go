package formats

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
)

// parquetWriter writes a Parquet file through pqarrow. Like the Arrow
// writer it opens the file writer on the first column set.
type parquetWriter struct {
	out            *countingWriter
	config         *WriterConfig
	codec          compress.Compression
	fileWriter     *pqarrow.FileWriter
	pool           memory.Allocator
	recordsWritten int64
}

func newParquetWriter(w *countingWriter, config *WriterConfig) (*parquetWriter, error) {
	codec, err := getParquetCompression(config.Compression)
	if err != nil {
		return nil, err
	}
	return &parquetWriter{
		out:    w,
		config: config,
		codec:  codec,
		pool:   memory.NewGoAllocator(),
	}, nil
}

// pqarrow panics when the destination fails while it writes the header or
// footer; those panics come back as errors.
func recoverWriteError(op string, err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = fmt.Errorf("%s: %w", op, e)
			return
		}
		*err = fmt.Errorf("%s: %v", op, r)
	}
}

func (pw *parquetWriter) WriteColumnSet(set *columnar.ColumnSet) (err error) {
	defer recoverWriteError("failed to write Parquet data", &err)

	record, err := set.ToArrow(pw.pool)
	if err != nil {
		return fmt.Errorf("failed to build Arrow record: %w", err)
	}
	defer record.Release()

	if pw.fileWriter == nil {
		props := parquet.NewWriterProperties(
			parquet.WithCompression(pw.codec),
			parquet.WithMaxRowGroupLength(pw.config.RowGroupSize),
			parquet.WithAllocator(pw.pool),
			parquet.WithCreatedBy("oraexport"),
		)
		arrowProps := pqarrow.NewArrowWriterProperties(
			pqarrow.WithAllocator(pw.pool),
			pqarrow.WithStoreSchema(),
		)
		fw, err := pqarrow.NewFileWriter(record.Schema(), pw.out, props, arrowProps)
		if err != nil {
			return fmt.Errorf("failed to create Parquet writer: %w", err)
		}
		pw.fileWriter = fw
	}

	if err := pw.fileWriter.Write(record); err != nil {
		return fmt.Errorf("failed to write Parquet row group: %w", err)
	}
	pw.recordsWritten += record.NumRows()
	return nil
}

func (pw *parquetWriter) Close() (err error) {
	defer recoverWriteError("failed to close Parquet writer", &err)

	if pw.fileWriter == nil {
		return nil
	}
	if err := pw.fileWriter.Close(); err != nil {
		return fmt.Errorf("failed to close Parquet writer: %w", err)
	}
	return nil
}

func (pw *parquetWriter) Format() Format {
	return Parquet
}

func (pw *parquetWriter) BytesWritten() int64 {
	return pw.out.n
}

func (pw *parquetWriter) RecordsWritten() int64 {
	return pw.recordsWritten
}

func getParquetCompression(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported Parquet compression: %s", name)
	}
}
