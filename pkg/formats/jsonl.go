package formats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/compression"
)

const (
	jsonlDateLayout      = "2006-01-02"
	jsonlTimestampLayout = "2006-01-02T15:04:05.000000"
)

// jsonlWriter writes one JSON object per row, keys in schema order.
// Invalid cells are null, temporal values ISO-8601 and binary upper-case hex.
type jsonlWriter struct {
	out            *countingWriter
	stream         io.WriteCloser
	buf            *bufio.Writer
	recordsWritten int64
}

func newJSONLWriter(w *countingWriter, config *WriterConfig) (*jsonlWriter, error) {
	alg, err := compression.ParseAlgorithm(config.Compression)
	if err != nil {
		return nil, err
	}
	stream, err := compression.NewWriter(w, alg, compression.Default)
	if err != nil {
		return nil, err
	}
	return &jsonlWriter{
		out:    w,
		stream: stream,
		buf:    bufio.NewWriterSize(stream, 64*1024),
	}, nil
}

func (jw *jsonlWriter) WriteColumnSet(set *columnar.ColumnSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	keys := make([][]byte, len(set.Columns))
	for i, col := range set.Columns {
		k, err := json.Marshal(col.Name)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	line := make([]byte, 0, 256)
	for row := 0; row < set.NumRows; row++ {
		line = append(line[:0], '{')
		for i, col := range set.Columns {
			if i > 0 {
				line = append(line, ',')
			}
			line = append(line, keys[i]...)
			line = append(line, ':')
			var err error
			line, err = appendJSONValue(line, col, row)
			if err != nil {
				return fmt.Errorf("column %q row %d: %w", col.Name, row, err)
			}
		}
		line = append(line, '}', '\n')
		if _, err := jw.buf.Write(line); err != nil {
			return err
		}
	}

	jw.recordsWritten += int64(set.NumRows)
	return nil
}

func appendJSONValue(dst []byte, col *columnar.Column, row int) ([]byte, error) {
	if !col.Valid[row] {
		return append(dst, "null"...), nil
	}
	switch col.Type.Kind {
	case columnar.Int64:
		return strconv.AppendInt(dst, col.Int64s()[row], 10), nil
	case columnar.Float64:
		f := col.Float64s()[row]
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return append(dst, "null"...), nil
		}
		return strconv.AppendFloat(dst, f, 'g', -1, 64), nil
	case columnar.Bool:
		return strconv.AppendBool(dst, col.Bools()[row]), nil
	case columnar.Binary:
		return appendJSONString(dst, columnar.BytesToHex(col.Binaries()[row]))
	case columnar.Date32:
		d := time.Unix(int64(col.Int32s()[row])*86400, 0).UTC()
		return appendJSONString(dst, d.Format(jsonlDateLayout))
	case columnar.Timestamp64:
		ts := time.UnixMicro(col.Int64s()[row]).UTC().Format(jsonlTimestampLayout)
		if col.Type.TimeZone != "" {
			ts += "Z"
		}
		return appendJSONString(dst, ts)
	default:
		return appendJSONString(dst, col.Strings()[row])
	}
}

func appendJSONString(dst []byte, s string) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

func (jw *jsonlWriter) Close() error {
	if err := jw.buf.Flush(); err != nil {
		return err
	}
	return jw.stream.Close()
}

func (jw *jsonlWriter) Format() Format {
	return JSONL
}

func (jw *jsonlWriter) BytesWritten() int64 {
	return jw.out.n
}

func (jw *jsonlWriter) RecordsWritten() int64 {
	return jw.recordsWritten
}
