package formats

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
)

// arrowWriter writes an Arrow IPC file. The schema is taken from the first
// column set, so the file writer is opened lazily.
type arrowWriter struct {
	out            *countingWriter
	config         *WriterConfig
	options        []ipc.Option
	fileWriter     *ipc.FileWriter
	pool           memory.Allocator
	recordsWritten int64
}

func newArrowWriter(w *countingWriter, config *WriterConfig) (*arrowWriter, error) {
	pool := memory.NewGoAllocator()
	options := []ipc.Option{ipc.WithAllocator(pool)}

	switch strings.ToLower(config.Compression) {
	case "", "none", "uncompressed":
	case "zstd":
		options = append(options, ipc.WithZstd())
	case "lz4":
		options = append(options, ipc.WithLZ4())
	default:
		return nil, fmt.Errorf("unsupported Arrow IPC compression: %s", config.Compression)
	}

	return &arrowWriter{
		out:     w,
		config:  config,
		options: options,
		pool:    pool,
	}, nil
}

func (aw *arrowWriter) WriteColumnSet(set *columnar.ColumnSet) error {
	record, err := set.ToArrow(aw.pool)
	if err != nil {
		return fmt.Errorf("failed to build Arrow record: %w", err)
	}
	defer record.Release()

	if aw.fileWriter == nil {
		opts := append([]ipc.Option{ipc.WithSchema(record.Schema())}, aw.options...)
		fw, err := ipc.NewFileWriter(aw.out, opts...)
		if err != nil {
			return fmt.Errorf("failed to create Arrow writer: %w", err)
		}
		aw.fileWriter = fw
	}

	rows := record.NumRows()
	batch := int64(aw.config.BatchSize)
	for start := int64(0); start < rows; start += batch {
		end := start + batch
		if end > rows {
			end = rows
		}
		slice := record.NewSlice(start, end)
		err := aw.fileWriter.Write(slice)
		slice.Release()
		if err != nil {
			return fmt.Errorf("failed to write record batch: %w", err)
		}
	}

	aw.recordsWritten += rows
	return nil
}

func (aw *arrowWriter) Close() error {
	if aw.fileWriter == nil {
		return nil
	}
	if err := aw.fileWriter.Close(); err != nil {
		return fmt.Errorf("failed to close Arrow writer: %w", err)
	}
	return nil
}

func (aw *arrowWriter) Format() Format {
	return Arrow
}

func (aw *arrowWriter) BytesWritten() int64 {
	return aw.out.n
}

func (aw *arrowWriter) RecordsWritten() int64 {
	return aw.recordsWritten
}
